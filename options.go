// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

package iamt

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Options configures a tree. It is immutable for the lifetime of the tree:
// every node descended from the same root shares the same HashAlg,
// BitWidth and BucketSize.
type Options struct {
	// HashAlg selects a hasher previously passed to RegisterHasher. Its
	// zero value is HashIdentity.
	HashAlg uint64
	// BitWidth is the number of hash bits consumed per level; a node has
	// 2^BitWidth potential slots. Must be in [3, 16].
	BitWidth uint `validate:"min=3,max=16"`
	// BucketSize is the maximum number of entries tolerated in a single
	// bucket before it splits into a child node. Must be >= 2.
	BucketSize int `validate:"min=2"`
}

// DefaultBitWidth and DefaultBucketSize are applied by withDefaults when an
// Options value leaves either field at its zero value.
const (
	DefaultBitWidth   uint = 8
	DefaultBucketSize int  = 5
)

var (
	validatorOnce sync.Once
	validatorInst *validator.Validate
)

// defaultValidator returns the shared validator instance, built once: a
// single validator.Validate configured with RegisterStructValidation
// hooks for rules that cannot be expressed as static struct tags.
func defaultValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInst = validator.New(validator.WithRequiredStructEnabled())
		validatorInst.RegisterStructValidation(validateOptionsHashAlg, Options{})
	})
	return validatorInst
}

// validateOptionsHashAlg checks that HashAlg names a registered hasher.
// This cannot be a static struct tag because the hasher registry is a
// runtime, process-wide table.
func validateOptionsHashAlg(sl validator.StructLevel) {
	opts := sl.Current().Interface().(Options)
	if _, ok := lookupHasher(opts.HashAlg); !ok {
		sl.ReportError(opts.HashAlg, "HashAlg", "HashAlg", "registered", "")
	}
}

// withDefaults fills in BitWidth/BucketSize when the caller left them at
// their zero value.
func (o Options) withDefaults() Options {
	if o.BitWidth == 0 {
		o.BitWidth = DefaultBitWidth
	}
	if o.BucketSize == 0 {
		o.BucketSize = DefaultBucketSize
	}
	return o
}

// validate runs struct-tag and cross-field validation and translates any
// failure into a ConfigError.
func (o Options) validate() error {
	if err := defaultValidator().Struct(o); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return ConfigError{Field: "options", Reason: err.Error()}
		}
		fe := verrs[0]
		return ConfigError{
			Field:  fe.Field(),
			Reason: fmt.Sprintf("failed check %q (value=%v)", fe.Tag(), fe.Value()),
		}
	}
	return nil
}

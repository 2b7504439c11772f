// SPDX-FileCopyrightText: 2024 - 2026 Mass Labs
//
// SPDX-License-Identifier: MIT

package iamt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptionsWithDefaults(t *testing.T) {
	r := require.New(t)
	o := Options{HashAlg: HashSHA2_256}.withDefaults()
	r.Equal(DefaultBitWidth, o.BitWidth)
	r.Equal(DefaultBucketSize, o.BucketSize)
}

func TestOptionsValidateRejectsUnregisteredHashAlg(t *testing.T) {
	o := Options{HashAlg: 0xabc123, BitWidth: 8, BucketSize: 4}
	err := o.validate()
	require.Error(t, err)
	require.IsType(t, ConfigError{}, err)
}

func TestOptionsValidateRejectsOutOfRangeBitWidth(t *testing.T) {
	o := Options{HashAlg: HashSHA2_256, BitWidth: 2, BucketSize: 4}
	err := o.validate()
	require.Error(t, err)

	o = Options{HashAlg: HashSHA2_256, BitWidth: 17, BucketSize: 4}
	err = o.validate()
	require.Error(t, err)
}

func TestOptionsValidateRejectsSmallBucketSize(t *testing.T) {
	o := Options{HashAlg: HashSHA2_256, BitWidth: 8, BucketSize: 1}
	err := o.validate()
	require.Error(t, err)
}

func TestOptionsValidateAcceptsGoodValues(t *testing.T) {
	o := Options{HashAlg: HashSHA2_256, BitWidth: 8, BucketSize: 4}
	require.NoError(t, o.validate())
}

package record

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorityFromLabel_NFCNormalization(t *testing.T) {
	// "é" composed (U+00E9) vs decomposed (U+0065 U+0301) must yield the
	// same authority.
	composed := AuthorityFromLabel("café")
	decomposed := AuthorityFromLabel("café")
	assert.Equal(t, composed, decomposed)

	assert.NotEqual(t, AuthorityFromLabel("alice"), AuthorityFromLabel("bob"))
}

func TestAuthorityAndTargetDomainsDiffer(t *testing.T) {
	// Same label under different domains must not collide.
	auth := AuthorityFromLabel("vault")
	target := TargetFromLabel("vault")
	assert.NotEqual(t, auth[:], target[:])
}

func TestInstructionKeyOrdering(t *testing.T) {
	bundleKey := BundleKey(ManagerKey(AuthorityFromLabel("alice")), 0)

	var keys []string
	for seq := uint16(0); seq < 300; seq += 7 {
		keys = append(keys, InstructionKey(bundleKey, seq))
	}

	require.True(t, sort.StringsAreSorted(keys),
		"lexicographic key order must equal insertion order")
}

func TestBundleKeyOrdering(t *testing.T) {
	managerKey := ManagerKey(AuthorityFromLabel("alice"))

	k1 := BundleKey(managerKey, 9)
	k2 := BundleKey(managerKey, 10)
	assert.Less(t, k1, k2)
}

func TestRefOf_Stable(t *testing.T) {
	assert.Equal(t, RefOf("manager/ab"), RefOf("manager/ab"))
	assert.NotEqual(t, RefOf("manager/ab"), RefOf("manager/ac"))
}

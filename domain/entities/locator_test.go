package entities

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocatorPick(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		loc        Locator
		visible    int
		want       int
		ambiguous  bool
		outOfRange bool
		notFound   bool
	}{
		{name: "single match", loc: ByText("808"), visible: 1, want: 0},
		{name: "no match", loc: ByText("808"), visible: 0, notFound: true},
		{name: "two matches", loc: ByText("808"), visible: 2, ambiguous: true},
		{name: "first of many", loc: ByText("808").First(), visible: 3, want: 0},
		{name: "last of many", loc: ByText("808").Nth(-1), visible: 3, want: 2},
		{name: "second of many", loc: ByText("808").Nth(1), visible: 3, want: 1},
		{name: "past the end", loc: ByText("808").Nth(3), visible: 3, outOfRange: true},
		{name: "before the start", loc: ByText("808").Nth(-4), visible: 3, outOfRange: true},
		{name: "pinned with none", loc: ByText("808").First(), visible: 0, outOfRange: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := tc.loc.Pick(tc.visible)
			if !tc.ambiguous && !tc.outOfRange && !tc.notFound {
				require.NoError(t, err)
				assert.Equal(t, tc.want, got)
				return
			}

			var notFound *ElementNotFoundError
			require.True(t, errors.As(err, &notFound))
			assert.Equal(t, tc.visible, notFound.Matches)
			assert.Equal(t, tc.ambiguous, notFound.Ambiguous())
			assert.Equal(t, tc.outOfRange, notFound.OutOfRange)
		})
	}
}

func TestLocatorValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ByRole("combobox", "").Validate())
	assert.NoError(t, ByCSS("div.grid").WithText("Drum Kit").Validate())
	assert.NoError(t, ByRole("option", "808").In(ByRole("listbox", "")).Validate())

	assert.Error(t, Locator{}.Validate())
	assert.Error(t, Locator{Name: "Save"}.Validate())
	err := ByRole("option", "808").In(Locator{}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "within")
}

func TestLocatorModifiersCopy(t *testing.T) {
	t.Parallel()

	base := ByRole("button", "Play")
	pinned := base.Nth(2)
	exact := base.ExactMatch()

	assert.Nil(t, base.Index)
	assert.False(t, base.Exact)
	require.NotNil(t, pinned.Index)
	assert.Equal(t, 2, *pinned.Index)
	assert.True(t, exact.Exact)
	assert.Equal(t, 0, base.WaitIndex())
	assert.Equal(t, 2, pinned.WaitIndex())
}

func TestLocatorString(t *testing.T) {
	t.Parallel()

	loc := ByRole("combobox", "").In(ByCSS("div.grid").WithText("Drum Kit").Nth(-1))
	assert.Equal(t, `div.grid has-text="Drum Kit" nth=-1 >> role=combobox`, loc.String())

	assert.Equal(t, `role=option[name="808"] exact nth=0`, ByRole("option", "808").ExactMatch().First().String())
}

package binfmt_test

import (
	"testing"

	"github.com/penguinmenac3/binrec/binfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passThroughType() (binfmt.BuildFunc, binfmt.ExtractFunc) {
	build := func(fields []any) (any, error) { return fields, nil }
	extract := func(v any) ([]any, error) { return v.([]any), nil }
	return build, extract
}

func TestRegister(t *testing.T) {
	build, extract := passThroughType()

	tests := []struct {
		name    string
		tag     byte
		layout  string
		build   binfmt.BuildFunc
		extract binfmt.ExtractFunc
		wantErr error
	}{
		{
			name:    "valid registration",
			tag:     'T',
			layout:  "bb[f]d",
			build:   build,
			extract: extract,
		},
		{
			name:    "bracket tag",
			tag:     '[',
			layout:  "b",
			build:   build,
			extract: extract,
			wantErr: binfmt.ErrConfiguration,
		},
		{
			name:    "non printable tag",
			tag:     '\n',
			layout:  "b",
			build:   build,
			extract: extract,
			wantErr: binfmt.ErrConfiguration,
		},
		{
			name:    "missing build",
			tag:     'T',
			layout:  "b",
			extract: extract,
			wantErr: binfmt.ErrConfiguration,
		},
		{
			name:    "missing extract",
			tag:     'T',
			layout:  "b",
			build:   build,
			wantErr: binfmt.ErrConfiguration,
		},
		{
			name:    "unbalanced layout",
			tag:     'T',
			layout:  "b[f",
			build:   build,
			extract: extract,
			wantErr: binfmt.ErrFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := binfmt.NewRegistry()
			err := reg.Register(tt.tag, tt.layout, tt.build, tt.extract)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
			typ, ok := reg.Lookup(tt.tag)
			require.True(t, ok)
			assert.Equal(t, tt.tag, typ.Tag)
			assert.Equal(t, tt.layout, typ.Layout)
			assert.NotNil(t, typ.Build)
			assert.NotNil(t, typ.Extract)
		})
	}
}

func TestRegisterDuplicateTag(t *testing.T) {
	build, extract := passThroughType()
	reg := binfmt.NewRegistry()

	require.NoError(t, reg.Register('T', "bb", build, extract))

	// The second registration loses even with an identical layout.
	err := reg.Register('T', "bb", build, extract)
	assert.ErrorIs(t, err, binfmt.ErrConfiguration)

	err = reg.Register('T', "dd", build, extract)
	assert.ErrorIs(t, err, binfmt.ErrConfiguration)

	// The first registration stays in place.
	typ, ok := reg.Lookup('T')
	require.True(t, ok)
	assert.Equal(t, "bb", typ.Layout)
}

func TestLookupMissing(t *testing.T) {
	reg := binfmt.NewRegistry()
	_, ok := reg.Lookup('T')
	assert.False(t, ok)
}

package artifact

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return st
}

func TestSaveAndOpen(t *testing.T) {
	st := newTestStore(t)
	payload := []byte("date,description\n01/04/2024,Salary\n")

	id, err := st.Save(payload)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(id, ".csv"))

	got, err := st.Open(id)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestOpen_UnknownID(t *testing.T) {
	st := newTestStore(t)

	_, err := st.Open("ffffffff-ffff-ffff-ffff-ffffffffffff.csv")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestOpen_RejectsUnsafeIdentifiers(t *testing.T) {
	st := newTestStore(t)

	for _, id := range []string{
		"../secrets.csv",
		"..%2Fsecrets.csv",
		"/etc/passwd",
		"report.txt",
		"report.csv.exe",
		"",
		".csv",
	} {
		_, err := st.Open(id)
		assert.True(t, errors.Is(err, ErrNotFound), "id %q must be rejected", id)
	}
}

func TestSave_DistinctIdentifiers(t *testing.T) {
	st := newTestStore(t)

	a, err := st.Save([]byte("a"))
	require.NoError(t, err)
	b, err := st.Save([]byte("b"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

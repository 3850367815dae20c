package contact

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSampleRequest(t *testing.T) *SampleRequest {
	t.Helper()
	id := uuid.New()
	r, err := NewSampleRequest("Mona", "Mona@Example.com", "", valueobject.Address{}, []uuid.UUID{id, id, uuid.Nil}, "")
	require.NoError(t, err)
	return r
}

func TestNewSampleRequest(t *testing.T) {
	r := newTestSampleRequest(t)
	assert.Equal(t, SampleStatusPending, r.Status)
	assert.Equal(t, "mona@example.com", r.Email)
	assert.Len(t, r.ProductIDs, 1, "duplicates and nil ids are dropped")
	assert.True(t, strings.HasPrefix(r.Reference, "SMP-"))
	require.Len(t, r.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeSampleRequestSubmitted, r.GetDomainEvents()[0].EventType())

	_, err := NewSampleRequest("Mona", "mona@example.com", "", valueobject.Address{}, nil, "")
	assert.Error(t, err)

	tooMany := make([]uuid.UUID, MaxSampleProducts+1)
	for i := range tooMany {
		tooMany[i] = uuid.New()
	}
	_, err = NewSampleRequest("Mona", "mona@example.com", "", valueobject.Address{}, tooMany, "")
	assert.Error(t, err)
}

func TestSampleRequest_Lifecycle(t *testing.T) {
	t.Run("pending to fulfilled", func(t *testing.T) {
		r := newTestSampleRequest(t)
		require.NoError(t, r.Fulfill("sent via courier"))
		assert.Equal(t, SampleStatusFulfilled, r.Status)
		assert.NotNil(t, r.FulfilledAt)
		assert.Equal(t, "sent via courier", r.StatusNote)
		assert.True(t, r.Status.IsTerminal())
	})

	t.Run("pending to cancelled", func(t *testing.T) {
		r := newTestSampleRequest(t)
		require.NoError(t, r.Cancel("out of area"))
		assert.Equal(t, SampleStatusCancelled, r.Status)
		assert.NotNil(t, r.CancelledAt)
	})

	t.Run("terminal states are final", func(t *testing.T) {
		r := newTestSampleRequest(t)
		require.NoError(t, r.Fulfill(""))
		assert.ErrorIs(t, r.Cancel(""), shared.ErrInvalidState)
		assert.ErrorIs(t, r.Fulfill(""), shared.ErrInvalidState)

		c := newTestSampleRequest(t)
		require.NoError(t, c.Cancel(""))
		assert.ErrorIs(t, c.Fulfill(""), shared.ErrInvalidState)
	})
}

func TestNewMessage(t *testing.T) {
	m, err := NewMessage(" Ali ", "ALI@example.com", "", "Order", "Where is my order?")
	require.NoError(t, err)
	assert.Equal(t, "ali@example.com", m.Email)
	assert.False(t, m.Read)

	m.MarkRead()
	assert.True(t, m.Read)
	assert.NotNil(t, m.ReadAt)

	_, err = NewMessage("Ali", "ali@example.com", "", "", " ")
	assert.Error(t, err)
	_, err = NewMessage("Ali", "ali@example.com", "", "", strings.Repeat("x", MaxMessageLength+1))
	assert.Error(t, err)
}

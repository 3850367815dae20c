package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseAggregateRoot_Versioning(t *testing.T) {
	a := NewBaseAggregateRoot()
	assert.Equal(t, 1, a.GetVersion())
	assert.Zero(t, a.PersistedVersion())

	before := a.UpdatedAt
	a.IncrementVersion()
	assert.Equal(t, 2, a.Version)
	assert.False(t, a.UpdatedAt.Before(before))

	a.MarkPersisted(3)
	assert.Equal(t, 3, a.Version)
	assert.Equal(t, 3, a.PersistedVersion())

	restored := RestoreAggregateRoot(a.BaseEntity, 7)
	assert.Equal(t, 7, restored.Version)
	assert.Equal(t, 7, restored.PersistedVersion())
	assert.Equal(t, a.ID, restored.ID)
}

func TestBaseAggregateRoot_Events(t *testing.T) {
	a := NewBaseAggregateRoot()
	evt := NewBaseDomainEvent("thing.happened", "Thing", a.ID)
	a.AddDomainEvent(&evt)
	assert.Len(t, a.GetDomainEvents(), 1)
	a.ClearDomainEvents()
	assert.Empty(t, a.GetDomainEvents())
}

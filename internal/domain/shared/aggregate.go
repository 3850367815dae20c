package shared

// AggregateRoot is the consistency boundary for writes. Version is used for
// optimistic locking; domain events are collected and published after commit.
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot provides the version counter and event buffer
type BaseAggregateRoot struct {
	BaseEntity
	Version          int
	persistedVersion int
	domainEvents     []DomainEvent
}

// GetVersion returns the aggregate version
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version and touches UpdatedAt
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
	a.Touch()
}

// PersistedVersion returns the version last read from or written to storage.
// Zero means the aggregate has never been saved.
func (a *BaseAggregateRoot) PersistedVersion() int {
	return a.persistedVersion
}

// MarkPersisted records that the current version is what storage holds
func (a *BaseAggregateRoot) MarkPersisted(version int) {
	a.Version = version
	a.persistedVersion = version
}

// AddDomainEvent records an event to publish once the aggregate is saved
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns the pending events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents drops the pending events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new aggregate root at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// RestoreAggregateRoot rebuilds an aggregate root loaded from storage
func RestoreAggregateRoot(e BaseEntity, version int) BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:       e,
		Version:          version,
		persistedVersion: version,
	}
}

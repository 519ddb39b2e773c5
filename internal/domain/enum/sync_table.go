package enum

// SyncTable names a collection that supports remote deletes
type SyncTable string

const (
	SyncTableProducts SyncTable = "products"
	SyncTableClients  SyncTable = "clients"
)

func (t SyncTable) String() string {
	return string(t)
}

func (t SyncTable) IsValid() bool {
	return t == SyncTableProducts || t == SyncTableClients
}

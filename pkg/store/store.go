package store

// Store is an interface for managing users, containers, and LFS state.
type Store interface {
	UserStore
	ContainerStore
	LFSStore
}

package access

// Ability is a named permission checked against an identity and a
// container.
type Ability string

const (
	// AbilityDownload allows fetching over the Git protocol and downloading
	// LFS objects.
	AbilityDownload Ability = "download"

	// AbilityPush allows pushing over the Git protocol and uploading LFS
	// objects.
	AbilityPush Ability = "push"

	// AbilityForceUnlock allows releasing LFS locks held by other users.
	AbilityForceUnlock Ability = "force-unlock"
)

// AbilitySet is a set of abilities granted to a request.
type AbilitySet map[Ability]struct{}

// NewAbilitySet returns a set containing the given abilities.
func NewAbilitySet(abilities ...Ability) AbilitySet {
	s := make(AbilitySet, len(abilities))
	for _, a := range abilities {
		s[a] = struct{}{}
	}
	return s
}

// Has reports whether the set contains the given ability.
func (s AbilitySet) Has(a Ability) bool {
	_, ok := s[a]
	return ok
}

// Abilities returns the abilities granted by an access level.
func (a AccessLevel) Abilities() AbilitySet {
	switch {
	case a >= AdminAccess:
		return NewAbilitySet(AbilityDownload, AbilityPush, AbilityForceUnlock)
	case a >= ReadWriteAccess:
		return NewAbilitySet(AbilityDownload, AbilityPush)
	case a >= ReadOnlyAccess:
		return NewAbilitySet(AbilityDownload)
	default:
		return NewAbilitySet()
	}
}

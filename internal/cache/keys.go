package cache

// Key names one cached query result.
type Key string

const (
	KeyAllInquiries       Key = "allInquiries"
	KeyAllUserProfiles    Key = "allUserProfiles"
	KeyCurrentUserProfile Key = "currentUserProfile"
	KeyIsCallerAdmin      Key = "isCallerAdmin"
	KeyCallerRole         Key = "callerRole"
)

// Mutation names a state-changing backend operation.
type Mutation string

const (
	MutationSubmitInquiry         Mutation = "submitInquiry"
	MutationDeleteInquiry         Mutation = "deleteInquiry"
	MutationSaveCallerUserProfile Mutation = "saveCallerUserProfile"
	MutationDeleteUserProfile     Mutation = "deleteUserProfile"
	MutationAssignUserRole        Mutation = "assignUserRole"
	MutationAssignCallerUserRole  Mutation = "assignCallerUserRole"
	MutationLogin                 Mutation = "login"
)

var invalidationSets = map[Mutation][]Key{
	MutationSubmitInquiry: {KeyAllInquiries},
	MutationDeleteInquiry: {KeyAllInquiries},
	// The admin listing includes the caller's own row.
	MutationSaveCallerUserProfile: {KeyCurrentUserProfile, KeyAllUserProfiles},
	MutationDeleteUserProfile:     {KeyAllUserProfiles, KeyCurrentUserProfile},
	MutationAssignUserRole:        {KeyAllUserProfiles, KeyIsCallerAdmin, KeyCallerRole},
	MutationAssignCallerUserRole:  {KeyAllUserProfiles, KeyIsCallerAdmin, KeyCallerRole},
	MutationLogin:                 {KeyIsCallerAdmin, KeyCallerRole, KeyCurrentUserProfile, KeyAllUserProfiles},
}

// InvalidationSet returns the keys a successful m makes stale.
func InvalidationSet(m Mutation) []Key {
	keys := invalidationSets[m]
	out := make([]Key, len(keys))
	copy(out, keys)
	return out
}

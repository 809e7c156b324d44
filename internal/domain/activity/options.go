package activity

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	EntityID     string
	GrantID      *string
	ActivityType *ActivityType
	Limit        int
	Offset       int
}

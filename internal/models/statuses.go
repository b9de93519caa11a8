package models

type UserRole string
type JobStatus string
type JobCategory string
type ApplicationStatus string
type SOSStatus string
type SOSHelperStatus string
type BanComplaintStatus string

const (
	UserRoleUser       UserRole = "user"
	UserRoleAdmin      UserRole = "admin"
	UserRoleSuperAdmin UserRole = "super_admin"

	// Job: достижимы pending, inProgress, pending_completion, completed, cancelled, disputed.
	// accepted / rejected есть в схеме, но ни один переход их не выставляет.
	JobStatusPending           JobStatus = "pending"
	JobStatusAccepted          JobStatus = "accepted"
	JobStatusRejected          JobStatus = "rejected"
	JobStatusInProgress        JobStatus = "inProgress"
	JobStatusPendingCompletion JobStatus = "pending_completion"
	JobStatusCompleted         JobStatus = "completed"
	JobStatusCancelled         JobStatus = "cancelled"
	JobStatusDisputed          JobStatus = "disputed"

	JobCategoryCleaning    JobCategory = "cleaning"
	JobCategoryMaintenance JobCategory = "maintenance"
	JobCategoryDelivery    JobCategory = "delivery"
	JobCategoryTutoring    JobCategory = "tutoring"
	JobCategoryPhotography JobCategory = "photography"
	JobCategoryCooking     JobCategory = "cooking"
	JobCategoryGardening   JobCategory = "gardening"
	JobCategoryPetCare     JobCategory = "petCare"
	JobCategoryOther       JobCategory = "other"

	// Application: достижимы pending, accepted, rejected, cancelled. Остальные - резерв схемы.
	ApplicationStatusPending           ApplicationStatus = "pending"
	ApplicationStatusInProgress        ApplicationStatus = "inProgress"
	ApplicationStatusAccepted          ApplicationStatus = "accepted"
	ApplicationStatusRejected          ApplicationStatus = "rejected"
	ApplicationStatusCompleted         ApplicationStatus = "completed"
	ApplicationStatusCancelled         ApplicationStatus = "cancelled"
	ApplicationStatusDisputed          ApplicationStatus = "disputed"
	ApplicationStatusPendingCompletion ApplicationStatus = "pending_completion"

	// SOS: inProgress никогда не выставляется, запрос остается active пока откликаются помощники.
	SOSStatusActive     SOSStatus = "active"
	SOSStatusInProgress SOSStatus = "inProgress"
	SOSStatusCompleted  SOSStatus = "completed"
	SOSStatusCancelled  SOSStatus = "cancelled"

	SOSHelperStatusResponding SOSHelperStatus = "responding"
	SOSHelperStatusOnTheWay   SOSHelperStatus = "onTheWay"
	SOSHelperStatusArrived    SOSHelperStatus = "arrived"
	SOSHelperStatusCompleted  SOSHelperStatus = "completed"

	BanComplaintStatusPending  BanComplaintStatus = "pending"
	BanComplaintStatusReviewed BanComplaintStatus = "reviewed"
	BanComplaintStatusResolved BanComplaintStatus = "resolved"
	BanComplaintStatusRejected BanComplaintStatus = "rejected"
)

// JobCategories - все допустимые категории в порядке объявления
var JobCategories = []JobCategory{
	JobCategoryCleaning,
	JobCategoryMaintenance,
	JobCategoryDelivery,
	JobCategoryTutoring,
	JobCategoryPhotography,
	JobCategoryCooking,
	JobCategoryGardening,
	JobCategoryPetCare,
	JobCategoryOther,
}

func (c JobCategory) IsValid() bool {
	for _, known := range JobCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ReachableJobStatuses - статусы, которые может выставить владелец через общий update
var ReachableJobStatuses = []JobStatus{
	JobStatusPending,
	JobStatusInProgress,
	JobStatusPendingCompletion,
	JobStatusCompleted,
	JobStatusCancelled,
	JobStatusDisputed,
}

func (s JobStatus) IsReachable() bool {
	for _, known := range ReachableJobStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (r UserRole) IsAdmin() bool {
	return r == UserRoleAdmin || r == UserRoleSuperAdmin
}

func (s BanComplaintStatus) IsValid() bool {
	switch s {
	case BanComplaintStatusPending, BanComplaintStatusReviewed, BanComplaintStatusResolved, BanComplaintStatusRejected:
		return true
	}
	return false
}

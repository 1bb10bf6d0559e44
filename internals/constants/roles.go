package constants

import "fmt"

const (
	RoleStudent  = "student"
	RoleReviewer = "reviewer"
	RoleAdmin    = "admin"
)

const (
	ErrOnlyReviewersCanAccess = "only reviewers or admins may access %s"
	ErrOnlyStudentsCanAccess  = "only students may access %s"
)

func RoleErrorReviewer(feature string) string {
	return fmt.Sprintf(ErrOnlyReviewersCanAccess, feature)
}

func RoleErrorStudent(feature string) string {
	return fmt.Sprintf(ErrOnlyStudentsCanAccess, feature)
}

var (
	ReviewerAndAbove = []string{
		RoleReviewer,
		RoleAdmin,
	}

	AdminOnly = []string{
		RoleAdmin,
	}

	StudentOnly = []string{
		RoleStudent,
	}
)

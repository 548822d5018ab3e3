package http

import (
	"strconv"

	"github.com/spec-kit/support-desk/internal/domain"
)

func jsonInt(id int64) string {
	return strconv.FormatInt(id, 10)
}

func memoryUser(id, name string) domain.User {
	return domain.User{ID: id, FullName: name, Email: id + "@example.com", Roles: domain.NewRoleSet(domain.RoleEmployee)}
}

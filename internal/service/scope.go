package service

import "fmt"

// Scope: кто и от имени какого арендатора вызывает движок.
// Передаётся явно в каждую операцию, глобального состояния нет.
type Scope struct {
	TenantID int64
	UserID   int64
}

// Owns проверяет, что запись принадлежит арендатору вызывающего.
func (s Scope) Owns(tenantID int64) bool {
	return s.TenantID == tenantID
}

func (s Scope) String() string {
	return fmt.Sprintf("tenant=%d user=%d", s.TenantID, s.UserID)
}

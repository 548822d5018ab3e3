package domain

import (
	"sort"
	"time"
)

// Comment is an entry in a ticket's thread. Comments are never edited or deleted
// individually.
type Comment struct {
	ID        int64
	TicketID  int64
	AuthorID  string
	Body      string
	CreatedAt time.Time
}

// SortComments orders a thread by creation time, ties broken by id.
func SortComments(comments []Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
}

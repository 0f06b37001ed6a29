// Package boardcache holds the most recent snapshot of a task board
// and answers questions about it: which tasks are overdue, which are
// due soon, who is on the board, which tasks match a name.
//
// The cache is a single slot with a TTL. Fetch refreshes it through a
// caller-supplied FetchFunc when the slot is empty or expired; a
// failed refresh returns the error but keeps the previous snapshot in
// the slot. The derived reads never fetch; they answer from whatever
// snapshot is present and return ErrNoData when none is.
package boardcache

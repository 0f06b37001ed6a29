package boardapi

import (
	"context"
	"fmt"
	"time"

	"github.com/threadflow/threadflow/pkg/boardcache"
)

// FetchBoard pulls the board and converts it into a snapshot.
func (c *Client) FetchBoard(ctx context.Context) (*boardcache.Snapshot, error) {
	resp, err := c.query(ctx, c.boardQuery())
	if err != nil {
		return nil, err
	}
	if len(resp.Data.Boards) == 0 {
		return nil, fmt.Errorf("board %d not found", c.boardID)
	}

	// A single-ID query still answers with a list; the name comes from
	// the first board and tasks from all of them.
	snap := &boardcache.Snapshot{
		BoardName: resp.Data.Boards[0].Name,
		FetchedAt: time.Now(),
	}
	for _, board := range resp.Data.Boards {
		groups := make(map[string]string, len(board.Groups))
		for _, g := range board.Groups {
			groups[g.ID] = g.Title
		}
		for _, item := range board.ItemsPage.Items {
			snap.Tasks = append(snap.Tasks, taskFromItem(item, groups))
		}
	}

	c.logger.Info("fetched board",
		"board_id", c.boardID,
		"board_name", snap.BoardName,
		"tasks", len(snap.Tasks),
	)
	return snap, nil
}

// Fetcher adapts the client to the cache's fetch contract.
func (c *Client) Fetcher() boardcache.FetchFunc {
	return c.FetchBoard
}

func taskFromItem(item boardItem, groups map[string]string) boardcache.Task {
	task := boardcache.Task{
		Name:  item.Name,
		Group: groups[item.Group.ID],
	}
	for _, col := range item.ColumnValues {
		switch col.ID {
		case colPerson:
			task.Assignee = col.Text
		case colDate:
			task.Deadline = col.Text
		case colStatus:
			task.Status = col.Text
		case colClient:
			task.Client = col.Text
		case colMiro:
			task.MiroLink = col.Text
		case colDrive:
			task.DriveLink = col.Text
		case colFrameio:
			task.FrameioLink = col.Text
		case colNotes:
			task.Notes = col.Text
		case colPriority:
			task.Priority = col.Text
		}
	}
	return task
}

package client

import (
	"strings"
	"sync"
)

// DefaultRoomPageSize is the number of rooms shown per directory page.
const DefaultRoomPageSize = 6

// RoomDirectoryView paginates and filters the room directory. Feed it each
// snapshot from SubscribeToRooms via SetRooms; the filter is a
// case-insensitive substring match on the room name, and any filter change
// resets the view to the first page.
type RoomDirectoryView struct {
	mu       sync.Mutex
	pageSize int
	rooms    []Room
	query    string
	page     int
}

// NewRoomDirectoryView returns a view over an empty directory. A pageSize
// of zero or less falls back to DefaultRoomPageSize.
func NewRoomDirectoryView(pageSize int) *RoomDirectoryView {
	if pageSize <= 0 {
		pageSize = DefaultRoomPageSize
	}
	return &RoomDirectoryView{pageSize: pageSize, page: 1}
}

// SetRooms replaces the backing room set, keeping the current filter and
// clamping the current page to the new page count.
func (v *RoomDirectoryView) SetRooms(rooms []Room) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rooms = append([]Room(nil), rooms...)
	v.clampPage()
}

// Filter sets the name query. A changed query resets the view to page one;
// setting the same query again leaves the current page alone.
func (v *RoomDirectoryView) Filter(query string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if query == v.query {
		return
	}
	v.query = query
	v.page = 1
}

// Page moves to the requested page, clamped to the valid range.
func (v *RoomDirectoryView) Page(page int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = page
	v.clampPage()
}

// CurrentPage reports the one-based page the view is on.
func (v *RoomDirectoryView) CurrentPage() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// PageCount reports how many pages the filtered directory spans. An empty
// result still counts as one page.
func (v *RoomDirectoryView) PageCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pageCount()
}

// Visible returns the rooms on the current page, in directory order.
func (v *RoomDirectoryView) Visible() []Room {
	v.mu.Lock()
	defer v.mu.Unlock()
	matched := v.matching()
	start := (v.page - 1) * v.pageSize
	if start >= len(matched) {
		return nil
	}
	end := start + v.pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return append([]Room(nil), matched[start:end]...)
}

func (v *RoomDirectoryView) matching() []Room {
	needle := strings.ToLower(strings.TrimSpace(v.query))
	if needle == "" {
		return v.rooms
	}
	matched := make([]Room, 0, len(v.rooms))
	for _, room := range v.rooms {
		if strings.Contains(strings.ToLower(room.Name), needle) {
			matched = append(matched, room)
		}
	}
	return matched
}

func (v *RoomDirectoryView) pageCount() int {
	matched := len(v.matching())
	if matched == 0 {
		return 1
	}
	return (matched + v.pageSize - 1) / v.pageSize
}

func (v *RoomDirectoryView) clampPage() {
	if v.page < 1 {
		v.page = 1
	}
	if last := v.pageCount(); v.page > last {
		v.page = last
	}
}

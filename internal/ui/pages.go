package ui

import (
	"fmt"
	"strconv"

	"github.com/tamsa/libterm/internal/library"
	"github.com/tamsa/libterm/internal/router"
)

// View kinds the UI knows how to draw.
const (
	KindHome     = "home"
	KindLogin    = "login"
	KindRegister = "register"
	KindCourses  = "courses"
	KindCourse   = "course"
	KindModule   = "module"
	KindTopic    = "topic"
	KindSearch   = "search"
	KindUsers    = "users"
	KindAbout    = "about"
)

// Dashboard is the data of the home view.
type Dashboard struct {
	Courses []library.Course
}

// CoursePage is the data of a course view.
type CoursePage struct {
	Course  library.Course
	Modules []library.Module
}

// ModulePage is the data of a module view.
type ModulePage struct {
	ModuleID int64
	Topics   []library.TopicSummary
}

// SearchPage is the data of a search view.
type SearchPage struct {
	Query   string
	Results []library.SearchResult
}

// listItem is one selectable row.
type listItem struct {
	Title   string
	Detail  string
	Badge   string
	Path    string
	TopicID int64
}

// items returns the rows of the current list view.
func (m Model) items() []listItem {
	if m.shown.Delivery == nil {
		return nil
	}
	return itemsFor(m.shown.Frame.View.Kind, m.shown.Delivery.Data)
}

func itemsFor(kind string, data any) []listItem {
	switch kind {
	case KindHome:
		if d, ok := data.(Dashboard); ok {
			return courseItems(d.Courses)
		}
	case KindCourses:
		if courses, ok := data.([]library.Course); ok {
			return courseItems(courses)
		}
	case KindCourse:
		if page, ok := data.(CoursePage); ok {
			out := make([]listItem, 0, len(page.Modules))
			for _, mod := range page.Modules {
				out = append(out, listItem{
					Title:  mod.Name,
					Detail: mod.Description,
					Path:   "/modules/" + strconv.FormatInt(mod.ID, 10),
				})
			}
			return out
		}
	case KindModule:
		if page, ok := data.(ModulePage); ok {
			out := make([]listItem, 0, len(page.Topics))
			for _, t := range page.Topics {
				out = append(out, listItem{
					Title:   t.Name,
					Path:    "/topics/" + strconv.FormatInt(t.ID, 10),
					TopicID: t.ID,
				})
			}
			return out
		}
	case KindSearch:
		if page, ok := data.(SearchPage); ok {
			out := make([]listItem, 0, len(page.Results))
			for _, r := range page.Results {
				out = append(out, listItem{
					Title: r.Name,
					Badge: r.Type,
					Path:  r.Path(),
				})
			}
			return out
		}
	case KindUsers:
		if users, ok := data.([]library.User); ok {
			out := make([]listItem, 0, len(users))
			for _, u := range users {
				out = append(out, listItem{
					Title:  u.Username,
					Detail: u.Email,
					Badge:  u.Role,
				})
			}
			return out
		}
	}
	return nil
}

func courseItems(courses []library.Course) []listItem {
	out := make([]listItem, 0, len(courses))
	for _, c := range courses {
		out = append(out, listItem{
			Title:  c.Name,
			Detail: c.Description,
			Path:   fmt.Sprintf("/courses/%d", c.ID),
		})
	}
	return out
}

// viewTitle picks a heading for the frame, preferring loaded data.
func viewTitle(frame router.Frame, data any) string {
	switch d := data.(type) {
	case CoursePage:
		if d.Course.Name != "" {
			return d.Course.Name
		}
	case library.Topic:
		if d.Name != "" {
			return d.Name
		}
	case SearchPage:
		return fmt.Sprintf("Results for %q", d.Query)
	}
	return frame.View.Title
}

package app

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tamsa/libterm/internal/router"
	"github.com/tamsa/libterm/internal/ui"
)

func titled(kind, title string) func(router.Params) router.View {
	return func(router.Params) router.View {
		return router.View{Kind: kind, Title: title}
	}
}

// routes is the route table. Order matters: the first match wins.
func (a *App) routes() []router.Route {
	return []router.Route{
		{Name: "home", Match: router.Exact("/"), View: titled(ui.KindHome, "Dashboard"), Action: a.loadDashboard},
		{Name: "login", Match: router.Exact("/login"), View: titled(ui.KindLogin, "Log in")},
		{Name: "register", Match: router.Exact("/register"), View: titled(ui.KindRegister, "Register")},
		{Name: "courses", Match: router.Exact("/courses"), View: titled(ui.KindCourses, "Courses"), Action: a.loadCourses},
		{Name: "course", Match: router.Pattern("/courses/{id}"), View: titled(ui.KindCourse, "Course"), Action: a.loadCourse},
		{Name: "module", Match: router.Pattern("/modules/{id}"), View: titled(ui.KindModule, "Module"), Action: a.loadModule},
		{Name: "topic", Match: router.Pattern("/topics/{id}"), View: titled(ui.KindTopic, "Topic"), Action: a.loadTopic},
		{Name: "search", Match: router.Pattern("/search/{query}"), View: titled(ui.KindSearch, "Search"), Action: a.loadSearch},
		{Name: "users", Match: router.Exact("/admin/users"), View: titled(ui.KindUsers, "Users"), Action: a.loadUsers},
		{Name: "about", Match: router.Exact("/about"), View: titled(ui.KindAbout, "About")},
	}
}

func idParam(params router.Params) (int64, error) {
	id, ok := params.Int64(0)
	if !ok {
		return 0, fmt.Errorf("invalid id %q", params.At(0))
	}
	return id, nil
}

func (a *App) loadDashboard(ctx context.Context, _ router.Params) (any, error) {
	courses, err := a.client.Courses(ctx)
	if err != nil {
		return nil, err
	}
	return ui.Dashboard{Courses: courses}, nil
}

func (a *App) loadCourses(ctx context.Context, _ router.Params) (any, error) {
	return a.client.Courses(ctx)
}

func (a *App) loadCourse(ctx context.Context, params router.Params) (any, error) {
	id, err := idParam(params)
	if err != nil {
		return nil, err
	}
	course, err := a.client.Course(ctx, id)
	if err != nil {
		return nil, err
	}
	modules, err := a.client.Modules(ctx, id)
	if err != nil {
		return nil, err
	}
	return ui.CoursePage{Course: course, Modules: modules}, nil
}

func (a *App) loadModule(ctx context.Context, params router.Params) (any, error) {
	id, err := idParam(params)
	if err != nil {
		return nil, err
	}
	topics, err := a.client.Topics(ctx, id)
	if err != nil {
		return nil, err
	}
	return ui.ModulePage{ModuleID: id, Topics: topics}, nil
}

func (a *App) loadTopic(ctx context.Context, params router.Params) (any, error) {
	id, err := idParam(params)
	if err != nil {
		return nil, err
	}
	return a.client.Topic(ctx, id)
}

func (a *App) loadSearch(ctx context.Context, params router.Params) (any, error) {
	query, err := url.PathUnescape(params.At(0))
	if err != nil {
		return nil, fmt.Errorf("invalid search query: %w", err)
	}
	results, err := a.client.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return ui.SearchPage{Query: query, Results: results}, nil
}

func (a *App) loadUsers(ctx context.Context, _ router.Params) (any, error) {
	return a.client.Users(ctx)
}

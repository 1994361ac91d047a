// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RouteAdmin is the admin mount point.
	RouteAdmin = "/admin"

	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteParamName is the name parameter pattern.
	RouteParamName = "/{name}"

	// RoutePage is the pages admin route.
	RoutePage = "/page"
	// RoutePageEditor is the page editor route.
	RoutePageEditor = RoutePage + "/editor"
	// RoutePageEditorID is the page editor route for an existing page.
	RoutePageEditorID = RoutePageEditor + RouteParamID
	// RoutePageID is the page ID route pattern.
	RoutePageID = RoutePage + RouteParamID
	// RoutePageStatus toggles the page status.
	RoutePageStatus = RoutePageID + "/status"
	// RoutePageViews serves the view statistics fragment.
	RoutePageViews = RoutePageID + "/views"
	// RoutePageDelete is the form-friendly delete route.
	RoutePageDelete = RoutePageID + "/delete"

	// RouteSettings is the settings admin route.
	RouteSettings = "/settings"
	// RouteEvents is the event log admin route.
	RouteEvents = "/events"
	// RouteScheduler is the scheduler admin route.
	RouteScheduler = "/scheduler"
	// RouteSchedulerRun triggers a job immediately.
	RouteSchedulerRun = RouteScheduler + RouteParamName + "/run"
	// RouteCache is the cache admin route.
	RouteCache = "/cache"
	// RouteCacheClear clears the cache.
	RouteCacheClear = RouteCache + "/clear"

	// RoutePublicPage serves a published page by path.
	RoutePublicPage = "/page/{path}"
)

const (
	redirectAdminPages      = RouteAdmin + RoutePage
	redirectAdminEditor     = RouteAdmin + RoutePageEditor
	redirectAdminEditorID   = redirectAdminEditor + "/%s"
	redirectAdminSettings   = RouteAdmin + RouteSettings
	redirectAdminScheduler  = RouteAdmin + RouteScheduler
	redirectAdminCache      = RouteAdmin + RouteCache
	redirectLogin           = RouteLogin
	redirectAfterLoginParam = "next"
)

// Flash messages shown after page mutations.
const (
	MsgPageDeleted     = "Page deleted successfully"
	MsgOperationOK     = "Operation successful"
	MsgPageNotFound    = "Page not found"
	MsgInvalidFormData = "Invalid form data"
)

// HeaderContentType is the Content-Type HTTP header name.
const HeaderContentType = "Content-Type"

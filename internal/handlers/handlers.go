package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"sitepanel/internal/services"
	"sitepanel/internal/web"
)

const sitesPage = "sites.html"

type SiteHandler struct {
	sites       *services.SiteList
	journalSize int
}

// RegisterRoutes wires the HTML panel on e and its JSON view on api.
func RegisterRoutes(e *echo.Echo, api *echo.Group, sites *services.SiteList, journalSize int) {
	h := &SiteHandler{sites: sites, journalSize: journalSize}

	e.GET("/", h.Index)
	e.GET("/healthz", h.Healthz)
	e.GET("/sites", h.ListSites)
	e.POST("/sites", h.CreateSite)
	e.GET("/sites/:safe/delete", h.ConfirmDelete)
	e.POST("/sites/:safe/delete", h.DeleteSite)
	e.GET("/sites/:safe/rename", h.RenamePrompt)
	e.POST("/sites/:safe/rename", h.RenameSite)

	api.GET("/sites", h.APIView)
	api.POST("/refresh", h.APIRefresh)
}

func (h *SiteHandler) render(c echo.Context, view services.View, dialog *web.Dialog) error {
	return c.Render(http.StatusOK, sitesPage, web.Page{
		View:       view,
		Dialog:     dialog,
		Activities: h.sites.Activities(c.Request().Context(), h.journalSize),
	})
}

// Index is a page load: always re-fetch, show the placeholder on failure.
func (h *SiteHandler) Index(c echo.Context) error {
	err := h.sites.FetchSites(c.Request().Context())
	view := h.sites.View("")
	view.LoadFailed = err != nil
	return h.render(c, view, nil)
}

func (h *SiteHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ListSites re-renders the roster through the filter query without
// contacting the backend. fragment=table returns only the table block.
func (h *SiteHandler) ListSites(c echo.Context) error {
	view := h.sites.View(c.QueryParam("q"))
	if c.QueryParam("fragment") == "table" {
		return c.Render(http.StatusOK, sitesPage+"#table", view)
	}
	return h.render(c, view, nil)
}

func (h *SiteHandler) CreateSite(c echo.Context) error {
	name := c.FormValue("siteName")
	query := c.FormValue("q")

	res := h.sites.Create(c.Request().Context(), name)
	if res.OK {
		// Success clears both the name input and the filter.
		view := h.sites.View("")
		view.LoadFailed = res.FetchErr != nil
		view.FormMessage = res.Message
		return h.render(c, view, nil)
	}

	view := h.sites.View(query)
	view.FormInput = name
	view.FormMessage = res.Message
	return h.render(c, view, nil)
}

func (h *SiteHandler) ConfirmDelete(c echo.Context) error {
	query := c.QueryParam("q")
	site, ok := h.sites.Lookup(safeParam(c))
	if !ok {
		return h.renderNotFound(c, query)
	}
	return h.render(c, h.sites.View(query), &web.Dialog{
		Kind:     web.DialogConfirmDelete,
		SafeName: site.SafeName,
		Name:     site.SiteName,
	})
}

func (h *SiteHandler) DeleteSite(c echo.Context) error {
	notice := h.sites.Delete(c.Request().Context(), safeParam(c))
	view := h.sites.View(c.FormValue("q"))
	view.Notice = notice
	return h.render(c, view, nil)
}

func (h *SiteHandler) RenamePrompt(c echo.Context) error {
	query := c.QueryParam("q")
	site, ok := h.sites.Lookup(safeParam(c))
	if !ok {
		return h.renderNotFound(c, query)
	}
	return h.render(c, h.sites.View(query), &web.Dialog{
		Kind:     web.DialogRename,
		SafeName: site.SafeName,
		Name:     site.SiteName,
		Value:    site.SiteName,
	})
}

func (h *SiteHandler) RenameSite(c echo.Context) error {
	safe := safeParam(c)
	query := c.FormValue("q")
	newName := c.FormValue("newName")

	res, err := h.sites.Rename(c.Request().Context(), safe, newName)
	switch {
	case errors.Is(err, services.ErrSiteNotFound):
		return h.renderNotFound(c, query)
	case errors.Is(err, services.ErrEmptyName):
		site, ok := h.sites.Lookup(safe)
		if !ok {
			return h.renderNotFound(c, query)
		}
		return h.render(c, h.sites.View(query), &web.Dialog{
			Kind:     web.DialogRename,
			SafeName: site.SafeName,
			Name:     site.SiteName,
			Value:    newName,
			Error:    services.MsgEmptyName,
		})
	case err != nil:
		return err
	}

	view := h.sites.View(query)
	view.Notice = res.Notice
	view.LoadFailed = res.FetchErr != nil
	return h.render(c, view, nil)
}

func (h *SiteHandler) renderNotFound(c echo.Context, query string) error {
	view := h.sites.View(query)
	view.Notice = services.ErrorNotice(services.MsgSiteNotFound)
	return h.render(c, view, nil)
}

func (h *SiteHandler) APIView(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sites.View(c.QueryParam("q")))
}

func (h *SiteHandler) APIRefresh(c echo.Context) error {
	err := h.sites.FetchSites(c.Request().Context())
	view := h.sites.View(c.QueryParam("q"))
	view.LoadFailed = err != nil
	return c.JSON(http.StatusOK, view)
}

func safeParam(c echo.Context) string {
	raw := c.Param("safe")
	if s, err := url.PathUnescape(raw); err == nil {
		return s
	}
	return raw
}

package web

import (
	"sitepanel/internal/models"
	"sitepanel/internal/services"
)

type DialogKind string

const (
	DialogConfirmDelete DialogKind = "confirm-delete"
	DialogRename        DialogKind = "rename"
)

// Dialog is a blocking prompt drawn over the table.
type Dialog struct {
	Kind     DialogKind
	SafeName string
	Name     string
	Value    string
	Error    string
}

// Page is the data every sites.html render receives.
type Page struct {
	View       services.View
	Dialog     *Dialog
	Activities []models.Activity
}

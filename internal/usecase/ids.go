package usecase

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

var tableIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func validTableID(id string) bool {
	return tableIDPattern.MatchString(id)
}

// ルートの restaurantId / tableId を確認
func validateTable(restaurantID string, tableID string) error {
	if !validID(restaurantID) {
		return NewHTTPError(http.StatusBadRequest, "invalid restaurant id")
	}
	if !validTableID(tableID) {
		return NewHTTPError(http.StatusBadRequest, "invalid table id")
	}
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

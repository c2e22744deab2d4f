package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"tableorder/internal/domain/model"
	"tableorder/internal/handler"
	"tableorder/internal/repository"
	"tableorder/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func adminGroup(e *echo.Echo) *echo.Group {
	return e.Group("/admin/restaurants/:restaurantId", withStaff(staffID))
}

// =====================
// orders
// =====================

func TestAdminOrder_ListBuildsFilter(t *testing.T) {
	uc := new(adminOrderServiceMock)
	uc.On("List", mock.Anything, mock.MatchedBy(func(f repository.AdminOrderListFilter) bool {
		return f.RestaurantID == restaurantID && f.Page == 2 && f.Limit == 10 &&
			f.Status == "PENDING" && f.TableID == "T1" && f.From != nil && f.To == nil
	})).Return(usecase.AdminOrderListOutput{Page: 2, Limit: 10}, nil).Once()

	e := newEcho()
	handler.NewAdminOrderHandler(uc).RegisterRoutes(adminGroup(e))

	rec := doRequest(e, http.MethodGet,
		"/admin/restaurants/"+restaurantID+"/orders?page=2&limit=10&status=PENDING&table_id=T1&from=2026-01-01T00:00:00Z", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	uc.AssertExpectations(t)
}

func TestAdminOrder_ListInvalidQuery(t *testing.T) {
	uc := new(adminOrderServiceMock)
	e := newEcho()
	handler.NewAdminOrderHandler(uc).RegisterRoutes(adminGroup(e))

	rec := doRequest(e, http.MethodGet, "/admin/restaurants/"+restaurantID+"/orders?from=yesterday", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid from", decodeError(t, rec))

	rec = doRequest(e, http.MethodGet, "/admin/restaurants/"+restaurantID+"/orders?page=x", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid page", decodeError(t, rec))
}

func TestAdminOrder_UpdateStatusUsesStaffFromToken(t *testing.T) {
	uc := new(adminOrderServiceMock)
	uc.On("UpdateStatus", mock.Anything, staffID, restaurantID, orderID, usecase.AdminUpdateOrderStatusInput{Status: "PREPARING"}).
		Return(usecase.OrderOutput{ID: orderID, Status: "PREPARING"}, nil).Once()

	e := newEcho()
	handler.NewAdminOrderHandler(uc).RegisterRoutes(adminGroup(e))

	rec := doRequest(e, http.MethodPut, "/admin/restaurants/"+restaurantID+"/orders/"+orderID+"/status", `{"status":"PREPARING"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	uc.AssertExpectations(t)
}

func TestAdminOrder_InvalidTransition(t *testing.T) {
	uc := new(adminOrderServiceMock)
	uc.On("UpdateStatus", mock.Anything, staffID, restaurantID, orderID, usecase.AdminUpdateOrderStatusInput{Status: "PENDING"}).
		Return(usecase.OrderOutput{}, usecase.NewHTTPError(http.StatusConflict, "invalid status transition")).Once()

	e := newEcho()
	handler.NewAdminOrderHandler(uc).RegisterRoutes(adminGroup(e))

	rec := doRequest(e, http.MethodPut, "/admin/restaurants/"+restaurantID+"/orders/"+orderID+"/status", `{"status":"PENDING"}`, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =====================
// feedbacks
// =====================

func TestAdminFeedback_List(t *testing.T) {
	uc := new(feedbackServiceMock)
	uc.On("List", mock.Anything, restaurantID, 1, 20).Return(usecase.FeedbackListOutput{Page: 1, Limit: 20}, nil).Once()

	e := newEcho()
	handler.NewFeedbackHandler(uc).RegisterAdminRoutes(adminGroup(e))

	rec := doRequest(e, http.MethodGet, "/admin/restaurants/"+restaurantID+"/feedbacks", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	uc.AssertExpectations(t)
}

// =====================
// menus
// =====================

func TestAdminMenu_CreateItem(t *testing.T) {
	in := usecase.AdminMenuItemInput{
		MenuID:     "11111111-1111-4111-8111-111111111111",
		CategoryID: "22222222-2222-4222-8222-222222222222",
		Name:       "Ramen",
		Price:      1050,
		IsVisible:  true,
	}
	uc := new(adminMenuServiceMock)
	uc.On("CreateItem", mock.Anything, restaurantID, in).Return(model.MenuItem{ID: itemID, Name: "Ramen"}, nil).Once()

	e := newEcho()
	handler.NewAdminMenuHandler(uc).RegisterRoutes(adminGroup(e))

	rec := doRequest(e, http.MethodPost, "/admin/restaurants/"+restaurantID+"/items",
		`{"menu_id":"11111111-1111-4111-8111-111111111111","category_id":"22222222-2222-4222-8222-222222222222","name":"Ramen","price":1050,"is_visible":true}`, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	uc.AssertExpectations(t)
}

func TestAdminMenu_CreateItemNegativePrice(t *testing.T) {
	uc := new(adminMenuServiceMock)
	e := newEcho()
	handler.NewAdminMenuHandler(uc).RegisterRoutes(adminGroup(e))

	rec := doRequest(e, http.MethodPost, "/admin/restaurants/"+restaurantID+"/items",
		`{"menu_id":"11111111-1111-4111-8111-111111111111","category_id":"22222222-2222-4222-8222-222222222222","name":"Ramen","price":-1}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "price must be >= 0", decodeError(t, rec))
}

func TestAdminMenu_SetVisibility(t *testing.T) {
	uc := new(adminMenuServiceMock)
	uc.On("SetVisibility", mock.Anything, staffID, restaurantID, itemID, false).Return(model.MenuItem{ID: itemID}, nil).Once()

	e := newEcho()
	handler.NewAdminMenuHandler(uc).RegisterRoutes(adminGroup(e))

	rec := doRequest(e, http.MethodPut, "/admin/restaurants/"+restaurantID+"/items/"+itemID+"/visibility", `{"is_visible":false}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(e, http.MethodPut, "/admin/restaurants/"+restaurantID+"/items/"+itemID+"/visibility", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	uc.AssertExpectations(t)
}

func TestAdminMenu_UploadImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	uc := new(adminMenuServiceMock)
	uc.On("UploadImage", mock.Anything, restaurantID, itemID, usecase.UploadImageInput{Data: png}).
		Return(model.MenuItem{ID: itemID, ImageURL: "http://minio/menu-images/x.png"}, nil).Once()

	e := newEcho()
	handler.NewAdminMenuHandler(uc).RegisterRoutes(adminGroup(e))

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("image", "ramen.png")
	require.NoError(t, err)
	_, _ = fw.Write(png)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/restaurants/"+restaurantID+"/items/"+itemID+"/image", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	uc.AssertExpectations(t)
}

func TestAdminMenu_UploadImageMissingField(t *testing.T) {
	uc := new(adminMenuServiceMock)
	e := newEcho()
	handler.NewAdminMenuHandler(uc).RegisterRoutes(adminGroup(e))

	rec := doRequest(e, http.MethodPost, "/admin/restaurants/"+restaurantID+"/items/"+itemID+"/image", `{}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "image required", decodeError(t, rec))
}

func TestAdminMenu_DeleteCategoryWithItems(t *testing.T) {
	uc := new(adminMenuServiceMock)
	uc.On("DeleteCategory", mock.Anything, restaurantID, "cat-1").
		Return(usecase.NewHTTPError(http.StatusConflict, "category has items")).Once()

	e := newEcho()
	handler.NewAdminMenuHandler(uc).RegisterRoutes(adminGroup(e))

	rec := doRequest(e, http.MethodDelete, "/admin/restaurants/"+restaurantID+"/categories/cat-1", "", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "category has items", decodeError(t, rec))
}

// =====================
// audit logs
// =====================

func TestAuditLog_ListBuildsQuery(t *testing.T) {
	uc := new(auditLogServiceMock)
	uc.On("List", mock.Anything, mock.MatchedBy(func(q repository.AuditLogQuery) bool {
		return q.RestaurantID == restaurantID && q.Page == 1 && q.Limit == 20 &&
			q.Action == model.AuditActionUpdateMenuItem &&
			q.ResourceType == model.AuditResourceMenuItem &&
			q.ResourceID == itemID && q.From == nil && q.To != nil
	})).Return(usecase.AuditLogListOutput{Items: []model.AuditLog{}, Page: 1, Limit: 20}, nil).Once()

	e := newEcho()
	handler.NewAuditLogHandler(uc).RegisterRoutes(adminGroup(e))

	rec := doRequest(e, http.MethodGet,
		"/admin/restaurants/"+restaurantID+"/audit-logs?action=UPDATE_MENU_ITEM&resource_type=menu_item&resource_id="+itemID+"&to=2026-02-01T00:00:00Z", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	uc.AssertExpectations(t)
}

func TestAuditLog_OwnerOnly(t *testing.T) {
	uc := new(auditLogServiceMock)
	e := newEcho()
	g := e.Group("/admin/restaurants/:restaurantId", withStaffRole(staffID, "STAFF"))
	handler.NewAuditLogHandler(uc).RegisterRoutes(g)

	rec := doRequest(e, http.MethodGet, "/admin/restaurants/"+restaurantID+"/audit-logs", "", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	uc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestAuditLog_InvalidPeriod(t *testing.T) {
	uc := new(auditLogServiceMock)
	e := newEcho()
	handler.NewAuditLogHandler(uc).RegisterRoutes(adminGroup(e))

	rec := doRequest(e, http.MethodGet, "/admin/restaurants/"+restaurantID+"/audit-logs?from=today", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid from", decodeError(t, rec))
}

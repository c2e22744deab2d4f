package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"tableorder/internal/domain/model"
	"tableorder/internal/handler"
	"tableorder/internal/usecase"
	auth "tableorder/internal/usecase/auth_usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// menu / table
// =====================

func TestMenu_TableLandingRedirects(t *testing.T) {
	uc := new(menuServiceMock)
	uc.On("TableLandingURL", mock.Anything, restaurantID, tableID).
		Return("http://fe/restaurants/" + restaurantID + "/tables/T1").Once()

	e := newEcho()
	handler.NewMenuHandler(uc).RegisterRoutes(e)

	rec := doRequest(e, http.MethodGet, "/restaurants/"+restaurantID+"/tables/T1", "", nil)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://fe/restaurants/"+restaurantID+"/tables/T1", rec.Header().Get("Location"))
}

func TestMenu_QRCode(t *testing.T) {
	uc := new(menuServiceMock)
	uc.On("TableQRCode", mock.Anything, restaurantID, tableID, 128).Return([]byte("\x89PNG"), nil).Once()

	e := newEcho()
	handler.NewMenuHandler(uc).RegisterRoutes(e)

	rec := doRequest(e, http.MethodGet, "/restaurants/"+restaurantID+"/tables/T1/qr.png?size=128", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", rec.Body.String())

	rec = doRequest(e, http.MethodGet, "/restaurants/"+restaurantID+"/tables/T1/qr.png?size=big", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMenu_NoActiveMenu(t *testing.T) {
	uc := new(menuServiceMock)
	uc.On("GetMenu", mock.Anything, restaurantID).
		Return(usecase.MenuOutput{}, usecase.NewHTTPError(http.StatusNotFound, "no active menu")).Once()

	e := newEcho()
	handler.NewMenuHandler(uc).RegisterRoutes(e)

	rec := doRequest(e, http.MethodGet, "/restaurants/"+restaurantID+"/menu", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no active menu", decodeError(t, rec))
}

// =====================
// cart
// =====================

func TestCart_AddItem(t *testing.T) {
	uc := new(cartServiceMock)
	uc.On("AddItem", mock.Anything, restaurantID, tableID, usecase.AddCartItemInput{MenuItemID: itemID, Quantity: 2}).
		Return(usecase.CartResponse{RestaurantID: restaurantID, TableID: tableID, Count: 2, Subtotal: 2100, Tax: 315, Total: 2415}, nil).Once()

	e := newEcho()
	handler.NewCartHandler(uc).RegisterRoutes(e)

	rec := doRequest(e, http.MethodPost, "/restaurants/"+restaurantID+"/tables/T1/cart",
		`{"menu_item_id":"`+itemID+`","quantity":2}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var out usecase.CartResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, int64(2415), out.Total)
	uc.AssertExpectations(t)
}

func TestCart_AddItem_InvalidBody(t *testing.T) {
	uc := new(cartServiceMock)
	e := newEcho()
	handler.NewCartHandler(uc).RegisterRoutes(e)

	rec := doRequest(e, http.MethodPost, "/restaurants/"+restaurantID+"/tables/T1/cart", `{"menu_item_id":"x"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid menu_item_id", decodeError(t, rec))

	rec = doRequest(e, http.MethodPost, "/restaurants/"+restaurantID+"/tables/T1/cart", `{"menu_item_id":`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid body", decodeError(t, rec))

	uc.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// quantity 0 は削除としてusecaseに渡す
func TestCart_PatchZeroQuantity(t *testing.T) {
	uc := new(cartServiceMock)
	uc.On("UpdateQuantity", mock.Anything, restaurantID, tableID, "line-1", int64(0)).
		Return(usecase.CartResponse{}, nil).Once()

	e := newEcho()
	handler.NewCartHandler(uc).RegisterRoutes(e)

	rec := doRequest(e, http.MethodPatch, "/restaurants/"+restaurantID+"/tables/T1/cart/items/line-1", `{"quantity":0}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(e, http.MethodPatch, "/restaurants/"+restaurantID+"/tables/T1/cart/items/line-1", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	uc.AssertExpectations(t)
}

func TestCart_Clear(t *testing.T) {
	uc := new(cartServiceMock)
	uc.On("Clear", mock.Anything, restaurantID, tableID).Return(usecase.CartResponse{}, nil).Once()

	e := newEcho()
	handler.NewCartHandler(uc).RegisterRoutes(e)

	rec := doRequest(e, http.MethodDelete, "/restaurants/"+restaurantID+"/tables/T1/cart", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	uc.AssertExpectations(t)
}

// =====================
// orders
// =====================

func TestOrder_PlaceForwardsIdempotencyKey(t *testing.T) {
	uc := new(orderServiceMock)
	uc.On("PlaceOrder", mock.Anything, restaurantID, tableID, usecase.PlaceOrderInput{IdempotencyKey: "k-1"}).
		Return(usecase.OrderOutput{ID: orderID, OrderNumber: 3, Status: "PENDING"}, nil).Once()

	e := newEcho()
	handler.NewOrderHandler(uc).RegisterRoutes(e)

	rec := doRequest(e, http.MethodPost, "/restaurants/"+restaurantID+"/tables/T1/orders", "",
		map[string]string{handler.HeaderIdempotencyKey: "k-1"})

	require.Equal(t, http.StatusCreated, rec.Code)
	var out usecase.OrderOutput
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, int64(3), out.OrderNumber)
}

func TestOrder_CartEmpty(t *testing.T) {
	uc := new(orderServiceMock)
	uc.On("PlaceOrder", mock.Anything, restaurantID, tableID, usecase.PlaceOrderInput{}).
		Return(usecase.OrderOutput{}, usecase.NewHTTPError(http.StatusBadRequest, "cart empty")).Once()

	e := newEcho()
	handler.NewOrderHandler(uc).RegisterRoutes(e)

	rec := doRequest(e, http.MethodPost, "/restaurants/"+restaurantID+"/tables/T1/orders", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cart empty", decodeError(t, rec))
}

func TestOrder_UnknownErrorIs500(t *testing.T) {
	uc := new(orderServiceMock)
	uc.On("GetOrder", mock.Anything, restaurantID, orderID).Return(usecase.OrderOutput{}, errors.New("boom")).Once()

	e := newEcho()
	handler.NewOrderHandler(uc).RegisterRoutes(e)

	rec := doRequest(e, http.MethodGet, "/restaurants/"+restaurantID+"/orders/"+orderID, "", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeError(t, rec))
}

// =====================
// checkout
// =====================

func TestCheckout_Create(t *testing.T) {
	uc := new(checkoutServiceMock)
	uc.On("CreateSession", mock.Anything, usecase.CreateCheckoutInput{
		RestaurantID: restaurantID,
		TableID:      tableID,
		SuccessURL:   "http://fe/success",
		CancelURL:    "http://fe/cancel",
	}).Return(usecase.CheckoutSessionOutput{ID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}, nil).Once()

	e := newEcho()
	handler.NewCheckoutHandler(uc, nopLogger()).RegisterRoutes(e)

	rec := doRequest(e, http.MethodPost, "/api/create-checkout-session",
		`{"restaurant_id":"`+restaurantID+`","table_id":"T1","successUrl":"http://fe/success","cancelUrl":"http://fe/cancel"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var out usecase.CheckoutSessionOutput
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "cs_1", out.ID)
}

func TestCheckout_GetSession(t *testing.T) {
	uc := new(checkoutServiceMock)
	uc.On("GetSession", mock.Anything, "cs_1").
		Return(usecase.CheckoutResultOutput{ReceiptURL: "https://r", OrderNumber: 5, PaymentStatus: "paid"}, nil).Once()

	e := newEcho()
	handler.NewCheckoutHandler(uc, nopLogger()).RegisterRoutes(e)

	rec := doRequest(e, http.MethodGet, "/api/get-checkout-session?session_id=cs_1", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var out usecase.CheckoutResultOutput
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "https://r", out.ReceiptURL)
	assert.Equal(t, int64(5), out.OrderNumber)
}

func TestCheckout_WebhookPassesRawBodyAndSignature(t *testing.T) {
	body := `{"type":"checkout.session.completed"}`
	uc := new(checkoutServiceMock)
	uc.On("HandleWebhook", mock.Anything, []byte(body), "t=1,v1=abc").Return(nil).Once()

	e := newEcho()
	handler.NewCheckoutHandler(uc, nopLogger()).RegisterRoutes(e)

	rec := doRequest(e, http.MethodPost, "/payments/webhook", body, map[string]string{"Stripe-Signature": "t=1,v1=abc"})

	assert.Equal(t, http.StatusOK, rec.Code)
	uc.AssertExpectations(t)
}

func TestCheckout_WebhookBadSignature(t *testing.T) {
	uc := new(checkoutServiceMock)
	uc.On("HandleWebhook", mock.Anything, mock.Anything, "").
		Return(usecase.NewHTTPError(http.StatusBadRequest, "invalid signature")).Once()

	e := newEcho()
	handler.NewCheckoutHandler(uc, nopLogger()).RegisterRoutes(e)

	rec := doRequest(e, http.MethodPost, "/payments/webhook", `{}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid signature", decodeError(t, rec))
}

// =====================
// feedback
// =====================

func TestFeedback_Submit(t *testing.T) {
	uc := new(feedbackServiceMock)
	uc.On("Submit", mock.Anything, usecase.SubmitFeedbackInput{RestaurantID: restaurantID, FeedbackText: "great", Rating: 5}).
		Return(model.Feedback{ID: "f1", RestaurantID: restaurantID, FeedbackText: "great", Rating: 5}, nil).Once()

	e := newEcho()
	handler.NewFeedbackHandler(uc).RegisterRoutes(e)

	rec := doRequest(e, http.MethodPost, "/api/submit-feedback",
		`{"restaurant_id":"`+restaurantID+`","feedback_text":"great","rating":5}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var out handler.SubmitFeedbackResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "Feedback submitted successfully", out.Message)
	assert.Equal(t, "f1", out.Data.ID)
}

func TestFeedback_MissingFields(t *testing.T) {
	uc := new(feedbackServiceMock)
	uc.On("Submit", mock.Anything, usecase.SubmitFeedbackInput{}).
		Return(model.Feedback{}, usecase.NewHTTPError(http.StatusBadRequest, "Missing required fields")).Once()

	e := newEcho()
	handler.NewFeedbackHandler(uc).RegisterRoutes(e)

	rec := doRequest(e, http.MethodPost, "/api/submit-feedback", `{}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields", decodeError(t, rec))
}

// =====================
// auth
// =====================

func TestAuth_LoginInvalidCredentials(t *testing.T) {
	uc := new(loginServiceMock)
	uc.On("Execute", mock.Anything, auth.LoginInput{Email: "a@b.c", Password: "x"}).
		Return(auth.LoginOutput{}, auth.ErrInvalidCredentials).Once()

	e := newEcho()
	handler.NewAuthHandler(uc).RegisterRoutes(e)

	rec := doRequest(e, http.MethodPost, "/auth/login", `{"email":"a@b.c","password":"x"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", decodeError(t, rec))
}

func TestAuth_LoginSuccess(t *testing.T) {
	uc := new(loginServiceMock)
	uc.On("Execute", mock.Anything, auth.LoginInput{Email: "owner@example.com", Password: "correct horse battery"}).
		Return(auth.LoginOutput{
			Staff: model.StaffUser{ID: staffID, RestaurantID: restaurantID, Role: model.RoleOwner},
			Token: auth.AccessToken{AccessToken: "jwt", TokenType: "Bearer", ExpiresIn: 3600},
		}, nil).Once()

	e := newEcho()
	handler.NewAuthHandler(uc).RegisterRoutes(e)

	rec := doRequest(e, http.MethodPost, "/auth/login", `{"email":"owner@example.com","password":"correct horse battery"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var out auth.LoginOutput
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "jwt", out.Token.AccessToken)
	assert.Equal(t, staffID, out.Staff.ID)
}

func TestCheckout_CreateSessionRejectsMalformedBody(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"not json", `{`, "invalid body"},
		{"bad restaurant id", `{"restaurant_id":"r-1","table_id":"T1"}`, "invalid restaurant_id"},
		{"bad table id", `{"restaurant_id":"` + restaurantID + `","table_id":"T 1"}`, "invalid table_id"},
		{"bad success url", `{"restaurant_id":"` + restaurantID + `","table_id":"T1","successUrl":"not a url"}`, "invalid success_url"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := new(checkoutServiceMock)
			e := newEcho()
			handler.NewCheckoutHandler(uc, nopLogger()).RegisterRoutes(e)

			rec := doRequest(e, http.MethodPost, "/api/create-checkout-session", tc.body, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.want, decodeError(t, rec))
			uc.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
		})
	}
}

func TestCheckout_CreateSessionEmptyFieldsReachUsecase(t *testing.T) {
	uc := new(checkoutServiceMock)
	uc.On("CreateSession", mock.Anything, usecase.CreateCheckoutInput{}).
		Return(usecase.CheckoutSessionOutput{}, usecase.NewHTTPError(http.StatusBadRequest, "Missing required fields")).Once()

	e := newEcho()
	handler.NewCheckoutHandler(uc, nopLogger()).RegisterRoutes(e)

	rec := doRequest(e, http.MethodPost, "/api/create-checkout-session", `{}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields", decodeError(t, rec))
	uc.AssertExpectations(t)
}

func TestFeedback_RejectsMalformedBody(t *testing.T) {
	uc := new(feedbackServiceMock)
	e := newEcho()
	handler.NewFeedbackHandler(uc).RegisterRoutes(e)

	rec := doRequest(e, http.MethodPost, "/api/submit-feedback",
		`{"restaurant_id":"nope","feedback_text":"great","rating":5}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid restaurant_id", decodeError(t, rec))

	rec = doRequest(e, http.MethodPost, "/api/submit-feedback", `{"rating":"five"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid body", decodeError(t, rec))

	uc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

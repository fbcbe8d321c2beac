package controllers

import (
	"net/http"

	"github.com/renelygems/storefront-backend/api/responses"
	"github.com/renelygems/storefront-backend/api/validators"
	checkoutsvc "github.com/renelygems/storefront-backend/internal/checkout"
	"github.com/renelygems/storefront-backend/pkg/enums"
	pkgerrors "github.com/renelygems/storefront-backend/pkg/errors"
	"github.com/renelygems/storefront-backend/pkg/logger"
	"github.com/renelygems/storefront-backend/pkg/types"
)

type checkoutRequest struct {
	PaymentMethod string              `json:"payment_method" validate:"required"`
	DeliveryType  string              `json:"delivery_type" validate:"required"`
	ShippingInfo  checkoutShippingDTO `json:"shipping_info"`
}

type checkoutShippingDTO struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Notes    string `json:"notes"`
}

// Checkout converts the authenticated user's cart into a pending order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		paymentMethod, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		deliveryType, err := enums.ParseDeliveryType(payload.DeliveryType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery type"))
			return
		}

		order, err := svc.Execute(r.Context(), userID, checkoutsvc.Input{
			PaymentMethod: paymentMethod,
			DeliveryType:  deliveryType,
			ShippingInfo: types.ShippingInfo{
				FullName: payload.ShippingInfo.FullName,
				Phone:    payload.ShippingInfo.Phone,
				Address:  payload.ShippingInfo.Address,
				City:     payload.ShippingInfo.City,
				Notes:    payload.ShippingInfo.Notes,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

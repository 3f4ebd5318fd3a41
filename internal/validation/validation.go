package validation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
)

// New returns a validator with the struct-level checks for inbound payloads registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterStructValidation(orderStructValidation, models.Order{})
	v.RegisterStructValidation(renewalStructValidation, models.RenewalEvent{})
	return v
}

// orderStructValidation rejects negative money amounts; the discount is
// subtracted by the line-item builder and must be sent as a positive value.
func orderStructValidation(sl validatorv10.StructLevel) {
	order := sl.Current().Interface().(models.Order)

	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"Total", order.Total},
		{"ShippingTotal", order.ShippingTotal},
		{"TaxTotal", order.TaxTotal},
		{"DiscountTotal", order.DiscountTotal},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			sl.ReportError(a.value.String(), a.field, a.field, "non_negative", "")
		}
	}
	for _, it := range order.Items {
		if it.Subtotal.IsNegative() {
			sl.ReportError(it.Subtotal.String(), "Items", "Items", "non_negative", "")
			break
		}
	}
}

func renewalStructValidation(sl validatorv10.StructLevel) {
	event := sl.Current().Interface().(models.RenewalEvent)
	if event.Amount.IsNegative() {
		sl.ReportError(event.Amount.String(), "Amount", "Amount", "non_negative", "")
	}
}

// BindAndValidate binds JSON body into `out` and runs validation.
// If validation fails, it writes a 400 response and returns an error for the handler to short-circuit.
func BindAndValidate(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid_request_body",
			"msg":   err.Error(),
		})
		return err
	}

	if err := v.Struct(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation_failed",
			"fields": ErrorsToMap(err),
		})
		return err
	}
	return nil
}

func ErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.StructNamespace()] = fe.Error()
		}
	} else {
		out["error"] = err.Error()
	}
	return out
}

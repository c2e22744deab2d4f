package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var tableIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// RequestValidator はecho.Validatorの実装。DTOのvalidateタグを見る。
type RequestValidator struct {
	v *validator.Validate
}

func New() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// テーブルIDは英数字・_・-のみ
	_ = v.RegisterValidation("tableid", func(fl validator.FieldLevel) bool {
		return tableIDPattern.MatchString(fl.Field().String())
	})
	return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	if err := rv.v.Struct(i); err != nil {
		return toMessage(err)
	}
	return nil
}

// 最初のエラーだけ短い英語にする（"rating must be <= 5" など）
func toMessage(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return err
	}
	fe := ves[0]
	field := toSnake(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "min", "gte":
		return fmt.Errorf("%s must be >= %s", field, fe.Param())
	case "max", "lte":
		return fmt.Errorf("%s must be <= %s", field, fe.Param())
	case "uuid", "uuid4":
		return fmt.Errorf("invalid %s", field)
	case "email":
		return fmt.Errorf("invalid %s", field)
	case "oneof":
		return fmt.Errorf("%s must be one of %s", field, fe.Param())
	default:
		return fmt.Errorf("invalid %s", field)
	}
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			// 連続した大文字（ID）は1語として扱う
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

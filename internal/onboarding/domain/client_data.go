package domain

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// minPhoneDigits 电话号码至少的数字位数，空格与连字符不计入
const minPhoneDigits = 10

var (
	phonePattern = regexp.MustCompile(`^\+?[\d\s-]{10,}$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

var clientValidator = newClientValidator()

// ClientData 客户提交的开户资料，创建后不可修改
type ClientData struct {
	LLCName     string `json:"llc_name" validate:"required,max=200"`
	LegalName   string `json:"legal_name" validate:"required,max=200"`
	DateOfBirth string `json:"date_of_birth" validate:"required,isodate"`
	Nationality string `json:"nationality" validate:"required,max=100"`
	Phone       string `json:"phone" validate:"required,phone"`
	Address     string `json:"address" validate:"required,max=500"`
	Email       string `json:"email" validate:"required,mailbox"`
}

// Normalize 去除首尾空白，email 统一小写
func (c ClientData) Normalize() ClientData {
	return ClientData{
		LLCName:     strings.TrimSpace(c.LLCName),
		LegalName:   strings.TrimSpace(c.LegalName),
		DateOfBirth: strings.TrimSpace(c.DateOfBirth),
		Nationality: strings.TrimSpace(c.Nationality),
		Phone:       strings.TrimSpace(c.Phone),
		Address:     strings.TrimSpace(c.Address),
		Email:       strings.ToLower(strings.TrimSpace(c.Email)),
	}
}

// Validate 字段级校验，失败返回 *ValidationError
func (c ClientData) Validate() error {
	err := clientValidator.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe.Tag())
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "max":
		return "is too long"
	case "isodate":
		return "must be a valid date in YYYY-MM-DD format"
	case "phone":
		return "must be a valid phone number"
	case "mailbox":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}

func newClientValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// 错误字段名使用 json tag
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return phonePattern.MatchString(s) && countDigits(s) >= minPhoneDigits
	})
	mustRegister(v, "mailbox", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "isodate", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !datePattern.MatchString(s) {
			return false
		}
		_, err := time.Parse(time.DateOnly, s)
		return err == nil
	})
	return v
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

package config

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/iwvelando/desking/pkg/format"
	"github.com/iwvelando/desking/pkg/validation"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// strictDecoding turns off mapstructure's weak typing, which would read a
// blank amount as 0 and true as 1. Strings are still accepted for numbers and
// flags, as environment overrides arrive as strings, but they go through the
// strict parsers.
func strictDecoding() []viper.DecoderConfigOption {
	return []viper.DecoderConfigOption{
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			strictScalarHook,
		)),
		func(dc *mapstructure.DecoderConfig) {
			dc.WeaklyTypedInput = false
		},
	}
}

func strictScalarHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	value := reflect.ValueOf(data)
	switch to.Kind() {
	case reflect.Float32, reflect.Float64:
		if from.Kind() == reflect.String {
			return format.ParseDecimal(value.String())
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch from.Kind() {
		case reflect.String:
			n, err := strconv.Atoi(strings.TrimSpace(value.String()))
			if err != nil {
				return nil, validation.Invalid("%q is not a whole number", value.String())
			}
			return n, nil
		case reflect.Float32, reflect.Float64:
			f := value.Float()
			if math.IsInf(f, 0) || f != math.Trunc(f) {
				return nil, validation.Invalid("%v is not a whole number", f)
			}
			return int64(f), nil
		}
	case reflect.Bool:
		if from.Kind() == reflect.String {
			b, err := strconv.ParseBool(strings.TrimSpace(value.String()))
			if err != nil {
				return nil, validation.Invalid("%q is not true or false", value.String())
			}
			return b, nil
		}
	case reflect.String:
		// Unquoted YAML such as zip: 37201 or year: 2024.
		switch from.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return strconv.FormatInt(value.Int(), 10), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return strconv.FormatUint(value.Uint(), 10), nil
		case reflect.Float32, reflect.Float64:
			return strconv.FormatFloat(value.Float(), 'f', -1, 64), nil
		}
	}
	return data, nil
}

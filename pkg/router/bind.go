package router

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Bind copies the controller's parameters into the struct target points to.
//
// Fields are matched by their `param` tag; untagged fields are matched by
// their name, case-insensitively. Missing parameters leave the field
// untouched.
//
//	var p struct {
//	    ID   int    `param:"id"`
//	    Slug string `param:"slug"`
//	}
//	err := ctrl.Bind(&p)
func (c *Controller) Bind(target any) error {
	return BindParams(c.Params(), target)
}

// BindParams is Bind for a plain parameter map.
func BindParams(params Params, target any) error {
	if target == nil {
		return nil
	}

	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr {
		return fmt.Errorf("bind: target must be a pointer, got %s", v.Kind())
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("bind: target must be a pointer to struct, got pointer to %s", v.Kind())
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Tag.Get("param")
		if name == "-" {
			continue
		}

		value, ok := lookupParam(params, name, field.Name)
		if !ok {
			continue
		}
		if err := setField(v.Field(i), value); err != nil {
			return fmt.Errorf("bind param %q: %w", field.Name, err)
		}
	}
	return nil
}

func lookupParam(params Params, tag, fieldName string) (string, bool) {
	if tag != "" {
		v, ok := params[tag]
		return v, ok
	}
	for k, v := range params {
		if strings.EqualFold(k, fieldName) {
			return v, true
		}
	}
	return "", false
}

func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %s", value)
		}
		field.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer: %s", value)
		}
		field.SetUint(n)

	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float: %s", value)
		}
		field.SetFloat(n)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported type: %s", field.Kind())
	}
	return nil
}

package exoerr

// The validator (package validate) raises one of these named conditions for
// every rejection spelled out in spec.md §4.1. They are all KindValidation
// except OperationNotFound/MultipleOperations, which map to KindInvalidRequest
// because they indicate a malformed request envelope rather than a bad
// selection against an otherwise-valid schema.

func OperationNotFound(name string) *Error {
	if name == "" {
		return newf(KindInvalidRequest, "no operation found in document")
	}
	return newf(KindInvalidRequest, "operation %q not found in document", name)
}

func MultipleOperations() *Error {
	return newf(KindInvalidRequest, "document defines multiple operations but no operationName was given")
}

func VariableNotFound(name string) *Error {
	return newf(KindValidation, "variable %q not found", name)
}

func MalformedVariable(name string, cause error) *Error {
	e := newf(KindValidation, "variable %q is malformed: %v", name, cause)
	e.Detail = cause
	return e
}

func InlineFragmentNotSupported() *Error {
	return newf(KindValidation, "inline fragments are not supported")
}

func InvalidField(typeName, fieldName string) *Error {
	return newf(KindValidation, "field %q is not defined on type %q", fieldName, typeName)
}

func StrayArguments(fieldName string) *Error {
	return newf(KindValidation, "field %q received an unexpected argument", fieldName)
}

func ScalarWithField(fieldName string) *Error {
	return newf(KindValidation, "field %q is scalar and cannot have a sub-selection", fieldName)
}

func SelectionSetTooDeep(depth, limit int) *Error {
	return newf(KindValidation, "selection set depth %d exceeds the maximum allowed depth of %d", depth, limit)
}

func MissingArgument(name string) *Error {
	return newf(KindValidation, "missing required argument %q", name)
}

func NullForNonNull(name string) *Error {
	return newf(KindValidation, "argument %q cannot be null", name)
}

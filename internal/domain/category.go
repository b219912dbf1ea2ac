package domain

// Category is the structural label attached to every physical line.
type Category int

const (
	Other Category = iota
	ClassHeader
	Signal
	Enum
	Constant
	ExportedField
	PublicField
	PrivateField
	DeferredInitField
	LifecycleMethod
	PublicMethod
	PrivateMethod
	ControlFlow
	Comment
	Blank
	Orphan
)

var categoryNames = [...]string{
	Other:             "Other",
	ClassHeader:       "ClassHeader",
	Signal:            "Signal",
	Enum:              "Enum",
	Constant:          "Constant",
	ExportedField:     "ExportedField",
	PublicField:       "PublicField",
	PrivateField:      "PrivateField",
	DeferredInitField: "DeferredInitField",
	LifecycleMethod:   "LifecycleMethod",
	PublicMethod:      "PublicMethod",
	PrivateMethod:     "PrivateMethod",
	ControlFlow:       "ControlFlow",
	Comment:           "Comment",
	Blank:             "Blank",
	Orphan:            "Orphan",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "Category(?)"
	}
	return categoryNames[c]
}

// MarshalText lets categories appear by name in JSON output.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// IsClassLevel reports whether the category may only appear at class scope.
func (c Category) IsClassLevel() bool {
	switch c {
	case ClassHeader, Signal, Enum, Constant, ExportedField, PublicField, PrivateField, DeferredInitField:
		return true
	}
	return false
}

// IsField reports whether the category is one of the field declarations.
func (c Category) IsField() bool {
	switch c {
	case ExportedField, PublicField, PrivateField, DeferredInitField:
		return true
	}
	return false
}

// IsMethod reports whether the category is a method header.
func (c Category) IsMethod() bool {
	return c == LifecycleMethod || c == PublicMethod || c == PrivateMethod
}

// IsTrivia reports whether the line carries no code.
func (c Category) IsTrivia() bool {
	return c == Comment || c == Blank
}

// MemberBucket is a slot in the canonical member order.
type MemberBucket int

const (
	BucketHeader MemberBucket = iota
	BucketClassDecl
	BucketSignals
	BucketEnums
	BucketConstants
	BucketExported
	BucketPublicFields
	BucketPrivateFields
	BucketDeferredFields
	BucketLifecycle
	BucketPublicMethods
	BucketPrivateMethods
	// BucketOther holds class-scope statements that fit no canonical slot.
	BucketOther
)

var bucketNames = [...]string{
	"header", "class", "signals", "enums", "constants", "exported",
	"public_fields", "private_fields", "deferred_fields", "lifecycle",
	"public_methods", "private_methods", "other",
}

func (b MemberBucket) String() string {
	if b < 0 || int(b) >= len(bucketNames) {
		return "bucket(?)"
	}
	return bucketNames[b]
}

// Bucket maps a declaration category to its canonical slot.
func (c Category) Bucket() MemberBucket {
	switch c {
	case ClassHeader:
		return BucketClassDecl
	case Signal:
		return BucketSignals
	case Enum:
		return BucketEnums
	case Constant:
		return BucketConstants
	case ExportedField:
		return BucketExported
	case PublicField:
		return BucketPublicFields
	case PrivateField:
		return BucketPrivateFields
	case DeferredInitField:
		return BucketDeferredFields
	case LifecycleMethod:
		return BucketLifecycle
	case PublicMethod:
		return BucketPublicMethods
	case PrivateMethod:
		return BucketPrivateMethods
	case Comment, Blank:
		return BucketHeader
	}
	return BucketOther
}

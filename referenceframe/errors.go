package referenceframe

import (
	"errors"
	"fmt"
)

// ErrCircularReference is returned when the joint tree contains a cycle.
var ErrCircularReference = errors.New("infinite loop finding path from link to root")

// ErrNoModelInformation is used when there is no model information.
var ErrNoModelInformation = errors.New("no model information")

// NewJointMissingError returns an error indicating that the model has no joint with the given name.
func NewJointMissingError(name string) error {
	return fmt.Errorf("joint with name %q not in model", name)
}

// NewLinkMissingError returns an error indicating that the model has no link with the given name.
func NewLinkMissingError(name string) error {
	return fmt.Errorf("link with name %q not in model", name)
}

// NewGroupMissingError returns an error indicating that the model has no group with the given name.
func NewGroupMissingError(name string) error {
	return fmt.Errorf("joint group with name %q not in model", name)
}

// NewIncorrectDoFError returns an error indicating that the length of an input slice does not
// match the number of variables it is being applied to.
func NewIncorrectDoFError(actual, expected int) error {
	return fmt.Errorf("number of inputs does not match degrees of freedom, expected %d, got %d", expected, actual)
}

// NewDuplicateNameError returns an error indicating that a joint or link name is reused.
func NewDuplicateNameError(kind, name string) error {
	return fmt.Errorf("duplicate %s name %q", kind, name)
}

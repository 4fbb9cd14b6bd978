package services

import (
	"regexp"
	"unicode/utf8"
)

// Account field limits.
const (
	MinPasswordLength = 6
	MaxPasswordBytes  = 72 // bcrypt ignores anything longer
	MaxBioLength      = 250
)

var emailPattern = regexp.MustCompile(`^(([^<>()\[\]\\.,;:\s@"]+(\.[^<>()\[\]\\.,;:\s@"]+)*)|.(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$`)

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return invalid("Please enter a valid email")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return invalid("Password must be at least 6 characters")
	}
	if len(password) > MaxPasswordBytes {
		return invalid("Password must not exceed 72 characters")
	}
	return nil
}

func validateBio(bio string) error {
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return invalid("Bio must not be more than 250 characters")
	}
	return nil
}

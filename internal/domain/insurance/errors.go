package insurance

import "errors"

var (
	ErrInsuranceTypeNotFound = errors.New("insurance type not found")
	ErrRuleNotFound          = errors.New("no insurance rule effective for this category and date")
	ErrBaseNotFound          = errors.New("contribution base not found")
	ErrBaseBelowFloor        = errors.New("contribution base is below the rule floor")
	ErrBaseAboveCeiling      = errors.New("contribution base exceeds the rule ceiling")
	ErrTypeNotApplicable     = errors.New("insurance type is not applicable for this category")
)

package generator

import (
	"time"

	"personnel/internal/employee/models"
)

// Name pools for regular records.
var (
	Surnames    = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez"}
	FirstNames  = []string{"James", "John", "Robert", "Michael", "William", "David", "Richard", "Charles", "Joseph", "Thomas"}
	Patronymics = []string{"James", "John", "Robert", "Michael", "William", "David", "Richard", "Charles", "Joseph", "Thomas"}
	Genders     = []string{models.GenderMale, models.GenderFemale}
)

// NeedleSurnames is disjoint from Surnames; every entry starts with
// models.DefaultNamePrefix.
var NeedleSurnames = []string{"Foster", "Franklin", "Fletcher", "Frazier", "Ferguson", "Floyd", "Finley", "Fields", "Farmer", "Frost"}

// NeedleGender is the fixed gender of needle records.
const NeedleGender = models.GenderMale

// Birth dates are drawn uniformly from this inclusive range.
var (
	BirthDateFrom = time.Date(1950, time.January, 1, 0, 0, 0, 0, time.UTC)
	BirthDateTo   = time.Date(2000, time.December, 31, 0, 0, 0, 0, time.UTC)
)

package merge

// Column names in the merged flat file.
const (
	ColDBN                    = "dbn"
	ColBorough                = "borough"
	ColSchoolName             = "school_name"
	ColSchoolYear             = "school_year"
	ColYear                   = "year"
	ColTotalEnrollment        = "total_enrollment"
	ColNStudentsTempHousing   = "n_students_temp_housing"
	ColPctStudentsTempHousing = "pct_students_temp_housing"
	ColNStudentsInShelter     = "n_students_in_shelter"
	ColNDHSShelter            = "n_dhs_shelter"
	ColNNonDHSShelter         = "n_non_dhs_shelter"
	ColNDoubledUp             = "n_doubled_up"
	ColPctChronicallyAbsent   = "pct_chronically_absent"
	ColNChronicallyAbsent     = "n_chronically_absent"
	ColNContributing          = "n_contributing_students"
	ColAttendance             = "attendance"

	HousingSuffix    = "_housing"
	AttendanceSuffix = "_attendance"
)

type rename struct {
	from, to string
}

// housingColumns are cleaned as numbers and renamed.
var housingColumns = []rename{
	{"total_students", ColTotalEnrollment},
	{"students_in_temporary_housing", ColNStudentsTempHousing},
	{"students_in_temporary_housing_1", ColPctStudentsTempHousing},
	{"students_residing_in_shelter", ColNStudentsInShelter},
	{"residing_in_dhs_shelter", ColNDHSShelter},
	{"residing_in_non_dhs_shelter", ColNNonDHSShelter},
	{"doubled_up", ColNDoubledUp},
}

// attendanceColumns are cleaned as numbers; an empty to keeps the name.
var attendanceColumns = []rename{
	{"chronically_absent_1", ColPctChronicallyAbsent},
	{"attendance", ""},
	{"total_days", ""},
	{"days_absent", ""},
	{"days_present", ""},
	{"chronically_absent", ColNChronicallyAbsent},
	{"contributing_10_total_days", ColNContributing},
}

// RequiredColumns must be non-empty in every merged row.
var RequiredColumns = []string{
	ColPctStudentsTempHousing,
	ColPctChronicallyAbsent,
	ColNStudentsTempHousing,
	ColTotalEnrollment,
}

// suffixed columns exist in both sources and are kept apart in the output.
var suffixed = map[string]bool{
	ColSchoolName: true,
	ColBorough:    true,
}

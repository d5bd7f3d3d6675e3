package schools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const mergedHeader = "dbn,school_name_housing,total_enrollment,n_students_temp_housing,pct_students_temp_housing,n_students_in_shelter,n_dhs_shelter,n_non_dhs_shelter,n_doubled_up,school_year,borough_housing,school_name_attendance,year,attendance,n_chronically_absent,pct_chronically_absent,borough_attendance\n"

const mergedCurrent = mergedHeader +
	"01M015,P.S. 015 Roberto Clemente,180.0,58.0,32.2,30.0,25.0,5.0,28.0,2020-21,Manhattan,P.S. 015,2020-21,90.0,70.0,40.0,Manhattan\n" +
	"09X004,P.S. 004 Crotona Park West,420.0,131.0,31.2,80.0,70.0,10.0,51.0,2020-21,Bronx,P.S. 004,2020-21,86.7,150.0,36.6,Bronx\n" +
	"31R080,I.S. 080 Peter Minuit,900.0,45.0,5.0,,,,40.0,2020-21,Staten Island,I.S. 080,2020-21,93.1,120.0,13.6,Staten Island\n"

const mergedAllYears = mergedHeader +
	"01M015,P.S. 015 Roberto Clemente,190.0,60.0,31.6,30.0,25.0,5.0,30.0,2019-20,Manhattan,P.S. 015,2019-20,91.0,60.0,35.5,Manhattan\n" +
	"01M015,P.S. 015 Roberto Clemente,999.0,1.0,1.0,0.0,0.0,0.0,1.0,2020-21,Manhattan,P.S. 015,2020-21,99.0,1.0,1.0,Manhattan\n"

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

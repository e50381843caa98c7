// # internal/ui/report/formats/tsv.go
package formats

import (
	"fmt"
	"strings"

	"coalesce/internal/core/ports"
)

var tsvEscaper = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

// GenerateTSV renders one row per finding, then one row per failed file.
func GenerateTSV(projectRoot string, files []ports.FileReport) (string, error) {
	var buf strings.Builder

	buf.WriteString("Type\tRule\tPattern\tFile\tLine\tColumn\tReplacement\tMessage\n")
	for _, file := range sortedFiles(files) {
		uri := relativeURI(projectRoot, file.Path)
		if file.Err != nil {
			buf.WriteString(fmt.Sprintf("error\t\t\t%s\t0\t0\t\t%s\n", uri, tsvEscaper.Replace(file.Err.Error())))
			continue
		}
		for _, f := range file.Findings {
			buf.WriteString(fmt.Sprintf("finding\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
				f.Rule,
				f.Pattern,
				uri,
				f.Position.Line,
				f.Position.Column,
				tsvEscaper.Replace(f.Replacement),
				tsvEscaper.Replace(f.Message),
			))
		}
	}

	return buf.String(), nil
}

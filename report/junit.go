package report

import (
	"io"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/gosimple/slug"
)

// writeJUnit produces JUnit XML understood by CI systems: one testsuite per
// submission, one testcase per check.
func (r *Report) writeJUnit(w io.Writer) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}

	passed, total := r.Totals()
	var errs int
	for i := range r.Submissions {
		errs += r.Submissions[i].Errors()
	}

	suites := doc.CreateElement("testsuites")
	suites.CreateAttr("id", r.ID.String())
	suites.CreateAttr("name", r.Exercise)
	suites.CreateAttr("tests", strconv.Itoa(total))
	suites.CreateAttr("failures", strconv.Itoa(total-passed-errs))
	suites.CreateAttr("errors", strconv.Itoa(errs))
	suites.CreateAttr("timestamp", r.GeneratedAt.UTC().Format(time.RFC3339))

	class := slug.Make(r.Exercise)
	for i := range r.Submissions {
		s := &r.Submissions[i]

		suite := suites.CreateElement("testsuite")
		suite.CreateAttr("id", strconv.Itoa(i))
		suite.CreateAttr("name", s.Name)
		suite.CreateAttr("tests", strconv.Itoa(s.Total))
		suite.CreateAttr("failures", strconv.Itoa(s.Failed()-s.Errors()))
		suite.CreateAttr("errors", strconv.Itoa(s.Errors()))
		suite.CreateAttr("timestamp", r.GeneratedAt.UTC().Format(time.RFC3339))

		if len(s.Source) > 0 || len(s.Diagnostics) > 0 {
			props := suite.CreateElement("properties")
			if len(s.Source) > 0 {
				addProperty(props, "source", s.Source)
			}
			for _, d := range s.Diagnostics {
				addProperty(props, "diagnostic", d)
			}
		}

		for _, res := range s.Results {
			tc := suite.CreateElement("testcase")
			tc.CreateAttr("name", res.CheckID)
			tc.CreateAttr("classname", class+"."+s.Name)
			if res.Passed {
				continue
			}
			tag := "failure"
			if res.IsError() {
				tag = "error"
			}
			f := tc.CreateElement(tag)
			f.CreateAttr("message", res.Reason())
			f.SetText(res.Message)
		}
	}

	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}

func addProperty(parent *etree.Element, name, value string) {
	p := parent.CreateElement("property")
	p.CreateAttr("name", name)
	p.CreateAttr("value", value)
}

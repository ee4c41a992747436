package reader

import (
	"strings"
	"text/template"
)

// scriptTemplate highlights the reference entry of the last clicked citation.
// The previous entry loses the class when another citation is clicked.
const scriptTemplate = `<script type="text/javascript">
(function () {
  var highlighted = null;
  document.addEventListener("click", function (event) {
    var link = event.target.closest ? event.target.closest('a[href^="#cite_"]') : null;
    if (!link) {
      return;
    }
    var target = document.getElementById(link.getAttribute("href").slice(1));
    if (!target) {
      return;
    }
    if (highlighted && highlighted !== target) {
      highlighted.classList.remove("{{.Class}}");
    }
    target.classList.toggle("{{.Class}}");
    highlighted = target.classList.contains("{{.Class}}") ? target : null;
  });
})();
</script>`

var citationScript = template.Must(template.New("citation-script").Parse(scriptTemplate))

// renderScript renders the highlight script for a CSS class. The class is
// validated by config, so it is safe inside a JS string literal.
func renderScript(class string) (string, error) {
	var b strings.Builder
	if err := citationScript.Execute(&b, struct{ Class string }{Class: class}); err != nil {
		return "", err
	}
	return b.String(), nil
}

package web

import (
	"html/template"
	"net/http"
)

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>docqa</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
h1 { font-size: 1.4rem; }
form { margin-bottom: 1.5rem; }
input[type=text] { width: 70%; padding: 0.4rem; }
button { padding: 0.4rem 0.8rem; }
.hit { border: 1px solid #ddd; border-radius: 4px; padding: 0.6rem; margin: 0.6rem 0; }
.hit .meta { color: #666; font-size: 0.85rem; }
.stats { color: #666; font-size: 0.9rem; }
</style>
</head>
<body>
<h1>docqa</h1>
<p class="stats">{{.Chunks}} chunks across {{.SourceCount}} documents</p>
<form id="query-form">
<input type="text" id="query" name="query" placeholder="Ask a question about your documents" autofocus>
<button type="submit">Search</button>
</form>
<div id="results"></div>
<script>
document.getElementById('query-form').addEventListener('submit', async (e) => {
	e.preventDefault();
	const query = document.getElementById('query').value;
	const res = await fetch('/api/query', {
		method: 'POST',
		headers: {'Content-Type': 'application/json'},
		body: JSON.stringify({query})
	});
	const out = document.getElementById('results');
	if (!res.ok) { out.textContent = await res.text(); return; }
	const data = await res.json();
	out.innerHTML = '';
	if (data.hits.length === 0) {
		out.textContent = 'No relevant passages found.';
		return;
	}
	for (const hit of data.hits) {
		const div = document.createElement('div');
		div.className = 'hit';
		const meta = document.createElement('div');
		meta.className = 'meta';
		meta.textContent = hit.filename + ' #' + hit.index + ' (score ' + hit.score.toFixed(3) + ')';
		const body = document.createElement('div');
		body.textContent = hit.content;
		div.append(meta, body);
		out.append(div);
	}
});
</script>
</body>
</html>
`))

type indexData struct {
	Chunks      int
	SourceCount int
}

// GET /
func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	count, err := s.repo.Count(r.Context())
	if err != nil {
		http.Error(w, "storage unavailable", http.StatusInternalServerError)
		return
	}
	sources, err := s.repo.Sources(r.Context())
	if err != nil {
		http.Error(w, "storage unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, indexData{Chunks: count, SourceCount: len(sources)}); err != nil {
		s.logger.Error("failed to render dashboard", "err", err)
	}
}

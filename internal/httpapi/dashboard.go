package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>prefetch cache dashboard</title>
<style>
body { font-family: monospace; background: #111; color: #eee; margin: 2rem; }
table { border-collapse: collapse; width: 100%; }
td, th { border: 1px solid #444; padding: 0.4rem 0.8rem; text-align: left; }
</style>
</head>
<body>
<h1>prefetch cache</h1>
<p>Storage: <span id="storage">-</span></p>
<table id="items"><thead>
<tr><th>id</th><th>title</th><th>downloading</th><th>bytes</th><th>speed (B/s)</th></tr>
</thead><tbody></tbody></table>
<script>
async function refresh() {
  const resp = await fetch('/status');
  const data = await resp.json();
  document.getElementById('storage').textContent =
    data.storage_used_bytes + ' / ' + data.storage_max_bytes + ' bytes';
  const body = document.querySelector('#items tbody');
  body.innerHTML = '';
  for (const item of data.items) {
    const row = document.createElement('tr');
    row.innerHTML = '<td>' + item.id + '</td><td>' + item.title + '</td><td>' +
      item.downloading + '</td><td>' + item.downloaded_bytes + '</td><td>' +
      Math.round(item.download_speed_bps) + '</td>';
    body.appendChild(row);
  }
}
refresh();
setInterval(refresh, 2000);
</script>
</body>
</html>`

// Dashboard serves a static diagnostic page that polls /status in a loop.
func (s *Server) Dashboard(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(dashboardHTML))
}

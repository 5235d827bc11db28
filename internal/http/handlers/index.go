package handlers

import "net/http"

// Index serves the embeddable chat widget page at the site root.
func Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>ChatDesk</title>
<style>
body { font-family: -apple-system, Arial, sans-serif; background: #f4f6f8; margin: 0; display: flex; justify-content: center; }
.chat { width: 420px; max-width: 100%; height: 100vh; display: flex; flex-direction: column; background: #fff; }
.chat header { background: #2563eb; color: #fff; padding: 1rem; font-weight: 600; }
#log { flex: 1; overflow-y: auto; padding: 1rem; }
.msg { margin: .5rem 0; padding: .5rem .75rem; border-radius: 8px; max-width: 85%; white-space: pre-wrap; }
.msg.user { background: #2563eb; color: #fff; margin-left: auto; }
.msg.bot { background: #e5e7eb; }
form { display: flex; gap: .5rem; padding: .75rem; border-top: 1px solid #e5e7eb; }
input { flex: 1; padding: .5rem; border: 1px solid #ccc; border-radius: 4px; }
button { padding: .5rem 1rem; background: #2563eb; color: #fff; border: none; border-radius: 4px; cursor: pointer; }
</style>
</head>
<body>
<div class="chat">
<header>ChatDesk Assistant</header>
<div id="log"></div>
<form id="form">
<input id="input" placeholder="Ask a question..." autocomplete="off">
<button type="submit">Send</button>
</form>
</div>
<script>
const sessionId = crypto.randomUUID();
const log = document.getElementById('log');

function show(text, who) {
  const div = document.createElement('div');
  div.className = 'msg ' + who;
  div.textContent = text;
  log.appendChild(div);
  log.scrollTop = log.scrollHeight;
}

document.getElementById('form').addEventListener('submit', async (e) => {
  e.preventDefault();
  const input = document.getElementById('input');
  const message = input.value.trim();
  if (!message) return;
  input.value = '';
  show(message, 'user');
  try {
    const res = await fetch('/messages', {
      method: 'POST',
      headers: { 'Content-Type': 'application/json', 'X-Session-ID': sessionId },
      body: JSON.stringify({ message })
    });
    const data = await res.json();
    show(data.response || 'Sorry, something went wrong.', 'bot');
  } catch {
    show('Sorry, something went wrong.', 'bot');
  }
});
</script>
</body>
</html>`

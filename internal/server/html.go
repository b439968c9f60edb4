package server

// getDefaultHTML provides the built-in web interface
func getDefaultHTML() string {
	return `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>MCI Recorder</title>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/@picocss/pico@2/css/pico.min.css">
</head>
<body>
    <main class="container">
        <h1>MCI Recorder</h1>
        <article>
            <h2 id="elapsed">00:00:00</h2>
            <progress id="progress" value="0" max="100"></progress>
            <p id="status">Ready</p>
            <p id="error" style="color: var(--pico-del-color)"></p>
            <div role="group">
                <button id="record" onclick="post('/record')">Record</button>
                <button id="stop" onclick="post('/stop', {path: document.getElementById('name').value})" disabled>Stop</button>
                <button id="play" onclick="post('/play', {path: document.getElementById('source').value})">Play</button>
            </div>
            <input id="name" placeholder="Recording name (optional)">
            <select id="source"></select>
        </article>
        <h3>API Endpoints:</h3>
        <ul>
            <li>POST /record - Start, pause or resume recording</li>
            <li>POST /stop - Stop and save</li>
            <li>POST /play - Play a recording</li>
            <li>GET /status - Get status</li>
            <li>GET /recordings - List recordings</li>
            <li>GET /metrics - Prometheus metrics</li>
        </ul>
    </main>
    <script>
        function post(url, fields) {
            const body = new URLSearchParams(fields || {});
            fetch(url, {method: 'POST', body: body})
                .then(r => r.json())
                .then(r => { if (!r.success) { document.getElementById('error').textContent = r.error; } })
                .then(loadRecordings);
        }

        function loadRecordings() {
            fetch('/recordings').then(r => r.json()).then(r => {
                const select = document.getElementById('source');
                select.innerHTML = '';
                r.recordings.forEach(rec => {
                    const option = document.createElement('option');
                    option.value = rec.name;
                    option.textContent = rec.name + ' (' + rec.duration_human + ')';
                    select.appendChild(option);
                });
            });
        }

        function render(d) {
            document.getElementById('elapsed').textContent = d.elapsed;
            document.getElementById('status').textContent = d.status;
            document.getElementById('error').textContent = d.last_error || '';
            const progress = document.getElementById('progress');
            progress.max = d.progress_maximum || 100;
            progress.value = d.progress;
            document.getElementById('record').textContent = d.controls.record_label;
            document.getElementById('record').disabled = !d.controls.record_enabled;
            document.getElementById('stop').disabled = !d.controls.stop_enabled;
            document.getElementById('play').disabled = !d.controls.play_enabled;
        }

        function connect() {
            const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
            const ws = new WebSocket(proto + location.host + '/ws');
            ws.onmessage = e => {
                const msg = JSON.parse(e.data);
                if (msg.type === 'display') { render(msg.display); }
            };
            ws.onclose = () => setTimeout(connect, 2000);
        }

        loadRecordings();
        connect();
    </script>
</body>
</html>`
}

package server

// indexHTML is formatted with the canvas width and height.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>barscope</title>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/@picocss/pico@2/css/pico.min.css">
</head>
<body>
    <main class="container">
        <h1>barscope</h1>
        <p><strong id="state">idle</strong> <span id="time">00:00</span></p>
        <img id="canvas" src="/canvas.png" width="%d" height="%d" alt="volume">
        <div role="group">
            <button onclick="post('/start')">Record</button>
            <button onclick="post('/stop')">Stop</button>
            <button class="secondary" onclick="post('/abort')">Abort</button>
        </div>
        <p id="clip"></p>
        <p id="error"></p>
    </main>
    <script>
        const post = (url) => fetch(url, {method: 'POST'});
        const $ = (id) => document.getElementById(id);
        let timer = null;
        const es = new EventSource('/events');
        es.addEventListener('state', (e) => {
            const d = JSON.parse(e.data);
            $('state').textContent = d.state;
            if (d.state === 'active' && !timer) {
                $('error').textContent = '';
                timer = setInterval(() => { $('canvas').src = '/canvas.png?t=' + Date.now(); }, 100);
            }
            if (d.state === 'idle' && timer) { clearInterval(timer); timer = null; $('time').textContent = '00:00'; }
        });
        es.addEventListener('time', (e) => { $('time').textContent = JSON.parse(e.data).time; });
        es.addEventListener('recorded', (e) => {
            const d = JSON.parse(e.data);
            $('clip').innerHTML = '<a href="/api/recording">' + d.title + '</a> <button onclick="post(\'/api/preview\')">Preview</button>';
        });
        es.addEventListener('failed', (e) => { $('error').textContent = JSON.parse(e.data).error; });
    </script>
</body>
</html>`

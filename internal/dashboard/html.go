package dashboard

const pageHTML = `<!DOCTYPE html>
<html lang="id">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>HoaxWatch Scraper</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: -apple-system, system-ui, sans-serif; background: #0f172a; color: #e2e8f0; min-height: 100vh; }
        header { background: #1e293b; padding: 1.25rem 2rem; border-bottom: 1px solid #475569; display: flex; justify-content: space-between; align-items: center; }
        header h1 { font-size: 1.4rem; color: #38bdf8; }
        .pill { padding: 0.4rem 0.9rem; border-radius: 9999px; font-size: 0.8rem; font-weight: 600; }
        .pill.on { background: #166534; color: #4ade80; }
        .pill.off { background: #854d0e; color: #fde047; }
        .totals { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 1rem; padding: 1.5rem 2rem 0; }
        .card { background: #1e293b; border: 1px solid #334155; border-radius: 10px; padding: 1.1rem; }
        .card .label { font-size: 0.7rem; text-transform: uppercase; letter-spacing: 0.05em; color: #94a3b8; }
        .card .value { font-size: 1.8rem; font-weight: 700; margin-top: 0.3rem; }
        table { width: calc(100% - 4rem); margin: 1.5rem 2rem; border-collapse: collapse; font-size: 0.85rem; }
        th, td { text-align: left; padding: 0.55rem 0.7rem; border-bottom: 1px solid #334155; }
        th { color: #94a3b8; font-weight: 600; text-transform: uppercase; font-size: 0.7rem; }
        .HEALTHY { color: #4ade80; } .DEGRADED { color: #fbbf24; } .DOWN { color: #f87171; }
        .muted { color: #64748b; }
        footer { text-align: center; padding: 1rem; color: #475569; font-size: 0.75rem; }
    </style>
</head>
<body>
    <header>
        <h1>HoaxWatch Scraper</h1>
        <span class="pill off" id="running">stopped</span>
    </header>
    <section class="totals">
        <div class="card"><div class="label">Stored articles</div><div class="value" id="total">0</div></div>
        <div class="card"><div class="label">Cycles</div><div class="value" id="cycles">0</div></div>
        <div class="card"><div class="label">Inserted</div><div class="value" id="inserted">0</div></div>
        <div class="card"><div class="label">Flagged hoaxes</div><div class="value" id="hoaxes">0</div></div>
    </section>
    <table>
        <thead><tr><th>Source</th><th>Available</th><th>Worker</th><th>Interval</th><th>Last run</th><th>Status</th><th>Collected</th><th>Health</th></tr></thead>
        <tbody id="sources"></tbody>
    </table>
    <footer>Refreshes every 5s</footer>
    <script>
        function cell(text, cls) { const td = document.createElement('td'); td.textContent = text; if (cls) td.className = cls; return td; }
        async function refresh() {
            try {
                const [st, stats] = await Promise.all([
                    fetch('/api/scraper/status').then(r => r.json()),
                    fetch('/api/stats').then(r => r.json()),
                ]);
                const pill = document.getElementById('running');
                pill.textContent = st.running ? 'running' : 'stopped';
                pill.className = 'pill ' + (st.running ? 'on' : 'off');
                document.getElementById('total').textContent = Number(stats.total_articles || 0).toLocaleString();
                const c = stats.counters || {};
                document.getElementById('cycles').textContent = Number(c.cycles_total || 0).toLocaleString();
                document.getElementById('inserted').textContent = Number(c.articles_inserted || 0).toLocaleString();
                document.getElementById('hoaxes').textContent = Number(c.hoaxes_flagged || 0).toLocaleString();
                const body = document.getElementById('sources');
                body.replaceChildren();
                (st.sources || []).forEach(s => {
                    const tr = document.createElement('tr');
                    const run = s.last_run || {};
                    tr.append(
                        cell(s.name),
                        cell(s.available ? 'yes' : 'no: ' + (s.error || ''), s.available ? '' : 'muted'),
                        cell(s.running ? 'running' : 'stopped'),
                        cell(s.interval_seconds + 's'),
                        cell(run.run_time ? new Date(run.run_time).toLocaleString() : '-'),
                        cell(run.status || '-'),
                        cell(run.articles_collected !== undefined ? run.articles_collected : '-'),
                        cell(s.health || '-', s.health || ''),
                    );
                    body.append(tr);
                });
            } catch (e) {}
        }
        setInterval(refresh, 5000);
        refresh();
    </script>
</body>
</html>`

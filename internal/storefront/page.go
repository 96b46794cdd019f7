package storefront

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/CSroseX/bisney/internal/simulation"
)

type toggleButton struct {
	Label string
	Path  string
	Key   string // response field holding the new state
}

type pageData struct {
	Products    []Product
	LookupPath  string
	LookupLabel string
	Toggles     []toggleButton
}

var page = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Bisney - Premium Beach Gear</title>
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; background: #F7F9FC; }
        .header { background: #FFFFFF; padding: 20px; border-bottom: 1px solid #E5E8ED; display: flex; justify-content: space-between; }
        .logo { font-size: 1.8em; font-weight: 700; color: #0069FF; }
        .hero { background: linear-gradient(135deg, #0069FF 0%, #00A6FF 100%); color: white; padding: 60px 20px; text-align: center; }
        .container { max-width: 1200px; margin: 0 auto; padding: 40px 20px; }
        .products-grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(300px, 1fr)); gap: 30px; }
        .product-card { background: #FFFFFF; border-radius: 8px; border: 1px solid #E5E8ED; }
        .product-image { background: #E0F2FF; height: 180px; display: flex; align-items: center; justify-content: center; font-size: 4em; }
        .product-info { padding: 20px; }
        .product-name { font-size: 1.25em; font-weight: 600; }
        .product-desc { color: #718096; margin: 8px 0 15px; }
        .product-price { font-size: 1.8em; font-weight: 700; color: #0069FF; margin-bottom: 15px; }
        .btn { padding: 12px 20px; border: none; border-radius: 6px; font-weight: 600; cursor: pointer; }
        .btn-cart { background: #0069FF; color: white; }
        .admin-controls { position: fixed; bottom: 20px; right: 20px; display: flex; flex-direction: column; gap: 10px; }
        .admin-btn.active { background: #E53E3E; color: white; }
        .toast { position: fixed; top: 80px; right: 20px; background: white; padding: 16px 20px; border-radius: 12px; display: none; }
        .toast.show { display: block; }
    </style>
</head>
<body>
    <div class="header"><div class="logo">🌊 Bisney</div><a href="/metrics">Metrics</a></div>
    <div class="hero"><h1>Premium Ocean Essentials</h1><p>Build the perfect sandcastle and relax in style</p></div>
    <div class="container">
        <div class="products-grid">
            {{- range .Products}}
            <div class="product-card">
                <div class="product-image">{{.Icon}}</div>
                <div class="product-info">
                    <div class="product-name">{{.Name}}</div>
                    <div class="product-desc">{{.Description}}</div>
                    <div class="product-price">${{printf "%.2f" .Price}}</div>
                    <button class="btn btn-cart" onclick="addToCart({{.ID}}, {{.Name}})">Add to Cart</button>
                    <button class="btn" onclick="lookup({{.ID}})">{{$.LookupLabel}}</button>
                </div>
            </div>
            {{- end}}
        </div>
    </div>
    <div id="toast" class="toast"></div>
    <div class="admin-controls">
        {{- range .Toggles}}
        <button class="btn admin-btn" onclick="toggle(this, {{.Path}}, {{.Key}})">{{.Label}}</button>
        {{- end}}
    </div>
    <script>
        function showToast(text) {
            const toast = document.getElementById('toast');
            toast.textContent = text;
            toast.classList.add('show');
            setTimeout(() => toast.classList.remove('show'), 3000);
        }
        async function post(path, body) {
            return fetch(path, { method: 'POST', headers: {'Content-Type': 'application/json'}, body: JSON.stringify(body || {}) });
        }
        async function addToCart(id, name) {
            try {
                const res = await post('/cart', {product_id: id, product_name: name});
                const data = await res.json();
                showToast(res.ok ? name + ' added successfully!' : (data.error || 'Please try again'));
            } catch (e) { showToast('Unable to add to cart'); }
        }
        async function lookup(id) {
            try {
                const res = await post({{.LookupPath}}, {product_id: id});
                const data = await res.json();
                showToast(data.message + ' (' + data.cache + ')');
            } catch (e) {}
        }
        async function toggle(btn, path, key) {
            try {
                const data = await (await post(path)).json();
                btn.classList.toggle('active', data[key]);
            } catch (e) {}
        }
    </script>
</body>
</html>
`))

func (s *Server) toggleButtons() []toggleButton {
	var buttons []toggleButton
	for _, mode := range s.variant.LegacyToggles {
		buttons = append(buttons, toggleButton{Label: modeLabel(mode), Path: "/" + mode, Key: mode + "_mode"})
	}
	if len(buttons) == 0 {
		for _, mode := range []string{simulation.ModeLatency, simulation.ModeDDoS} {
			buttons = append(buttons, toggleButton{Label: modeLabel(mode), Path: "/simulation/" + mode, Key: "active"})
		}
	}
	return buttons
}

func modeLabel(mode string) string {
	switch mode {
	case simulation.ModeDDoS:
		return "DDoS"
	case simulation.ModeLatency:
		return "Latency"
	}
	return "Load Test"
}

// Index renders the catalog page.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := page.Execute(w, pageData{
		Products:    s.catalog,
		LookupPath:  s.variant.LookupPath(),
		LookupLabel: s.variant.LookupLabel,
		Toggles:     s.toggleButtons(),
	})
	if err != nil {
		s.log.Zap().Error("render index", zap.Error(err))
	}
}

package web

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Order Desk ({{.Mode}})</title>
<style>
body { font-family: sans-serif; max-width: 40em; margin: 2em auto; }
label { display: block; margin-top: .6em; }
.error { color: #b00020; border: 1px solid #b00020; padding: .5em; }
.warn { color: #8a6d00; }
table { border-collapse: collapse; margin-top: 1em; }
td { border: 1px solid #ccc; padding: .2em .6em; }
</style>
</head>
<body>
<h1>Order Desk <small>{{.Mode}}</small></h1>

{{if .Error}}<p class="error" data-kind="{{.ErrorKind}}">{{.Error}}</p>{{end}}

{{if not .Connected}}
<form method="post" action="/connect">
  <label>API key <input name="api_key" autocomplete="off"></label>
  <label>API secret <input name="api_secret" type="password" autocomplete="off"></label>
  <button type="submit">Connect</button>
</form>
{{else}}
<p>Connected. Clock offset {{.OffsetMS}} ms.{{if .Degraded}} <span class="warn">Clock sync failed, timestamps are uncorrected.</span>{{end}}</p>
<form method="post" action="/orders">
  <label>Symbol
    <select name="symbol">
    {{range .Symbols}}<option value="{{.}}"{{if eq . $.Form.Symbol}} selected{{end}}>{{.}}</option>{{end}}
    </select>
  </label>
  <label>Side
    <select name="side">
      <option value="BUY"{{if eq .Form.Side "BUY"}} selected{{end}}>BUY</option>
      <option value="SELL"{{if eq .Form.Side "SELL"}} selected{{end}}>SELL</option>
    </select>
  </label>
  <label>Type
    <select name="type">
      <option value="MARKET"{{if eq .Form.Type "MARKET"}} selected{{end}}>MARKET</option>
      <option value="LIMIT"{{if eq .Form.Type "LIMIT"}} selected{{end}}>LIMIT</option>
      <option value="STOP"{{if eq .Form.Type "STOP"}} selected{{end}}>STOP</option>
    </select>
  </label>
  <label>Quantity <input name="quantity" value="{{.Form.Quantity}}"></label>
  <label>Price <input name="price" value="{{.Form.Price}}"></label>
  <label>Stop price <input name="stop_price" value="{{.Form.StopPrice}}"></label>
  <button type="submit">Place order</button>
</form>
<form method="post" action="/disconnect"><button type="submit">Disconnect</button></form>
{{end}}

{{if .Result}}
<table id="result">
{{range .Result}}<tr><td>{{.Name}}</td><td>{{.Value}}</td></tr>
{{end}}</table>
{{end}}
</body>
</html>
`

package handlers

const widgetErrorHTML = `<!DOCTYPE html>
<html><head><meta charset="UTF-8"><title>{{.Title}}</title><style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; margin: 2rem; }
.error { background: #fee; border: 1px solid #fcc; padding: 1.5rem; border-radius: 0.5rem; }
</style></head><body>
<div class="error">
<h1>{{.Heading}}</h1>
{{range .Lines}}<p>{{.}}</p>
{{end}}{{if .RequestID}}<p><small>Request ID: {{.RequestID}}</small></p>{{end}}
</div>
</body></html>
`

const widgetFormHTML = `<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.T.Title}}</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); min-height: 100vh; display: flex; align-items: center; justify-content: center; padding: 1rem; }
.container { background: white; border-radius: 20px; padding: 2rem; box-shadow: 0 20px 40px rgba(0,0,0,0.1); max-width: 600px; width: 100%; }
h1 { color: #2d3748; margin-bottom: 1.5rem; text-align: center; }
.pet-info { background: #f7fafc; border-radius: 12px; padding: 1rem; margin-bottom: 1.5rem; }
.pet-detail { display: flex; justify-content: space-between; margin-top: 0.5rem; }
.question h3 { color: #4a5568; margin-bottom: 0.5rem; }
.option { display: block; padding: 0.75rem 1rem; border: 2px solid #e2e8f0; border-radius: 10px; margin-top: 0.5rem; cursor: pointer; }
.option:has(input:checked) { border-color: #667eea; background: #ebf4ff; }
.category h4 { margin-top: 1rem; color: #4a5568; }
.text-input { width: 100%; padding: 0.75rem; border: 2px solid #e2e8f0; border-radius: 10px; margin-top: 1rem; }
.btn { margin-top: 1.5rem; padding: 0.75rem 1.5rem; border: none; border-radius: 10px; background: #667eea; color: white; font-size: 1rem; cursor: pointer; }
</style>
</head>
<body>
<div class="container" id="container">
  <h1>{{.T.Title}}</h1>
  <div class="pet-info">
    <h3>{{.T.PetInfo}}</h3>
    <div class="pet-detail"><span>{{.T.Species}}</span><strong>{{.Intake.Species}}</strong></div>
    <div class="pet-detail"><span>{{.T.Age}}</span><strong>{{.Intake.Age}}</strong></div>
    <div class="pet-detail"><span>{{.T.Name}}</span><strong>{{.Intake.Name}}</strong></div>
    <div class="pet-detail"><span>{{.T.Reason}}</span><strong>{{.Intake.Reason}}</strong></div>
  </div>
  <div class="question">
    <h3>{{.Question.Emoji}} {{.T.Question}} 1:</h3>
    <p>{{.Question.Question}}</p>
    {{$type := .InputType}}{{if .Question.Categories}}{{range .Question.Categories}}<div class="category"><h4>{{.Emoji}} {{.Title}}</h4>
      {{range .Options}}<label class="option"><input type="checkbox" name="answer" value="{{.}}"> {{.}}</label>
      {{end}}</div>
    {{end}}{{else if .Question.Options}}<div class="options">
      {{range .Question.Options}}<label class="option"><input type="{{$type}}" name="answer" value="{{.}}"> {{.}}</label>
      {{end}}</div>
    {{else}}<input type="text" class="text-input" id="textAnswer" placeholder="{{.T.Placeholder}}">
    {{end}}
  </div>
  <button class="btn" onclick="submitAnswer()">{{.T.Next}}</button>
</div>
<script>
function submitAnswer() {
  var picked = Array.prototype.map.call(document.querySelectorAll('input[name="answer"]:checked'), function (i) { return i.value; });
  var text = document.getElementById('textAnswer');
  var answer = picked.length ? picked.join(', ') : (text ? text.value.trim() : '');
  if (!answer) { alert({{.T.Required}}); return; }
  var c = document.getElementById('container');
  c.innerHTML = '';
  var h = document.createElement('h2'); h.textContent = {{.T.ThankYou}};
  var p = document.createElement('p'); p.textContent = {{.T.Recorded}};
  var a = document.createElement('p'); a.textContent = {{.T.YourAnswers}} + ' ' + answer;
  [h, p, a].forEach(function (n) { n.style.margin = '1rem 0'; c.appendChild(n); });
}
</script>
</body>
</html>
`

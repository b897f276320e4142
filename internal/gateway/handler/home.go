package handler

const homePage = `<html>
  <head>
    <title>README Generator</title>
    <style>
      body { font-family: Arial, sans-serif; margin: 20px; }
      .container { display: flex; gap: 20px; }
      .box { flex: 1; border: 1px solid #ccc; padding: 10px; }
      textarea { width: 100%; height: 400px; }
      #stages { color: #555; font-size: 0.9em; }
    </style>
  </head>
  <body>
    <h1>README Generator</h1>
    <form id="repoForm">
      <label for="profile">GitHub Profile Name:</label>
      <input type="text" id="profile" name="profile" required><br><br>
      <label for="repo">Repository Name:</label>
      <input type="text" id="repo" name="repo" required><br><br>
      <label for="branch">Branch:</label>
      <input type="text" id="branch" name="branch" placeholder="main"><br><br>
      <button type="submit">Generate README</button>
    </form>
    <ul id="stages"></ul>
    <hr>
    <div id="result" style="display:none;">
      <h2>Generated README (Markdown)</h2>
      <div class="container">
        <div class="box">
          <h3>Raw Markdown</h3>
          <textarea id="rawMarkdown" readonly></textarea>
        </div>
        <div class="box">
          <h3>Preview</h3>
          <div id="markdownPreview"></div>
        </div>
      </div>
    </div>
    <script>
      document.getElementById('repoForm').addEventListener('submit', function(e) {
        e.preventDefault();
        var formData = new FormData(e.target);
        document.getElementById('stages').innerHTML = '<li>working...</li>';
        fetch('/generate-readme', { method: 'POST', body: formData })
          .then(function(response) { return response.json(); })
          .then(function(data) {
            document.getElementById('stages').innerHTML = '';
            if (data.error) {
              alert('Error generating README: ' + data.error);
              return;
            }
            document.getElementById('rawMarkdown').value = data.readme;
            document.getElementById('markdownPreview').innerHTML = data.html;
            document.getElementById('result').style.display = 'block';
          })
          .catch(function(err) { alert('Error generating README: ' + err); });
      });
    </script>
  </body>
</html>
`
